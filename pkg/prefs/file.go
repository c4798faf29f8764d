package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const filePermissions = 0600

// FileEngine keeps all namespaces in one YAML document. Each PutUint
// rewrites the document through a temp file and rename, so a single key
// is either fully written or not at all.
type FileEngine struct {
	Path string

	lock sync.Mutex
	doc  map[string]map[string]uint32
}

// NewFileEngine creates a FileEngine backed by path.
func NewFileEngine(path string) *FileEngine {
	return &FileEngine{Path: path}
}

// Begin implements Engine.
func (e *FileEngine) Begin(namespace string, readOnly bool) (Namespace, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.load(); err != nil {
		return nil, err
	}
	return &fileNamespace{engine: e, name: namespace, readOnly: readOnly}, nil
}

func (e *FileEngine) load() error {
	data, err := os.ReadFile(e.Path)
	if os.IsNotExist(err) {
		e.doc = make(map[string]map[string]uint32)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read prefs: %w", err)
	}
	doc := make(map[string]map[string]uint32)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse prefs %s: %w", e.Path, err)
	}
	e.doc = doc
	return nil
}

func (e *FileEngine) store() error {
	data, err := yaml.Marshal(e.doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(e.Path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	tmpPath := e.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return err
	}
	return os.Rename(tmpPath, e.Path)
}

type fileNamespace struct {
	engine   *FileEngine
	name     string
	readOnly bool
	ended    bool
}

func (n *fileNamespace) GetUint(key string, def uint32) (uint32, error) {
	if n.ended {
		return def, ErrEnded
	}
	n.engine.lock.Lock()
	defer n.engine.lock.Unlock()
	if val, ok := n.engine.doc[n.name][key]; ok {
		return val, nil
	}
	return def, nil
}

func (n *fileNamespace) PutUint(key string, val uint32) error {
	if n.ended {
		return ErrEnded
	}
	if n.readOnly {
		return ErrReadOnly
	}
	n.engine.lock.Lock()
	defer n.engine.lock.Unlock()
	keys := n.engine.doc[n.name]
	if keys == nil {
		keys = make(map[string]uint32)
		n.engine.doc[n.name] = keys
	}
	prev, existed := keys[key]
	keys[key] = val
	if err := n.engine.store(); err != nil {
		if existed {
			keys[key] = prev
		} else {
			delete(keys, key)
		}
		return fmt.Errorf("put %s/%s: %w", n.name, key, err)
	}
	return nil
}

func (n *fileNamespace) End() error {
	n.ended = true
	return nil
}
