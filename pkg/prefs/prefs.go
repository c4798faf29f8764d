// Package prefs provides a small namespaced key/value persistence engine
// with begin/get/put/end semantics. Every put is durable on its own;
// there are no multi-key transactions.
package prefs

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned by PutUint on a namespace opened read-only.
	ErrReadOnly = errors.New("namespace is read-only")
	// ErrEnded is returned when a namespace is used after End.
	ErrEnded = errors.New("namespace already ended")
)

// Engine opens namespaces.
type Engine interface {
	// Begin opens a namespace. A read-only namespace never creates
	// storage.
	Begin(namespace string, readOnly bool) (Namespace, error)
}

// Namespace is an open view of one namespace.
type Namespace interface {
	// GetUint returns the stored value, or def if the key is absent.
	GetUint(key string, def uint32) (uint32, error)
	// PutUint stores a value durably.
	PutUint(key string, val uint32) error
	// End closes the namespace.
	End() error
}

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates an Engine by backend name.
func Open(backend, path string) (Engine, error) {
	switch backend {
	case "", BackendYAML:
		return NewFileEngine(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("unknown prefs backend %q", backend)
	}
}
