package prefs

import (
	"errors"
	"sync"
)

// ErrInjected is returned by a MemoryEngine once its put budget is spent.
var ErrInjected = errors.New("injected put failure")

// MemoryEngine keeps namespaces in memory.
type MemoryEngine struct {
	// FailAfter, when positive, makes every put after that many
	// successful ones fail with ErrInjected.
	FailAfter int

	lock sync.Mutex
	data map[string]map[string]uint32
	puts int
}

// NewMemoryEngine creates an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string]map[string]uint32)}
}

// Begin implements Engine.
func (e *MemoryEngine) Begin(namespace string, readOnly bool) (Namespace, error) {
	return &memoryNamespace{engine: e, name: namespace, readOnly: readOnly}, nil
}

// Keys returns a copy of a namespace's content.
func (e *MemoryEngine) Keys(namespace string) map[string]uint32 {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make(map[string]uint32, len(e.data[namespace]))
	for k, v := range e.data[namespace] {
		out[k] = v
	}
	return out
}

type memoryNamespace struct {
	engine   *MemoryEngine
	name     string
	readOnly bool
	ended    bool
}

func (n *memoryNamespace) GetUint(key string, def uint32) (uint32, error) {
	if n.ended {
		return def, ErrEnded
	}
	n.engine.lock.Lock()
	defer n.engine.lock.Unlock()
	if val, ok := n.engine.data[n.name][key]; ok {
		return val, nil
	}
	return def, nil
}

func (n *memoryNamespace) PutUint(key string, val uint32) error {
	if n.ended {
		return ErrEnded
	}
	if n.readOnly {
		return ErrReadOnly
	}
	e := n.engine
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.FailAfter > 0 && e.puts >= e.FailAfter {
		return ErrInjected
	}
	e.puts++
	if e.data == nil {
		e.data = make(map[string]map[string]uint32)
	}
	if e.data[n.name] == nil {
		e.data[n.name] = make(map[string]uint32)
	}
	e.data[n.name][key] = val
	return nil
}

func (n *memoryNamespace) End() error {
	n.ended = true
	return nil
}
