package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func engines(t *testing.T) map[string]func() Engine {
	dir := t.TempDir()
	return map[string]func() Engine{
		"memory": func() Engine {
			return NewMemoryEngine()
		},
		"yaml": func() Engine {
			return NewFileEngine(filepath.Join(dir, "prefs.yaml"))
		},
		"sqlite": func() Engine {
			e, err := OpenSQLite(filepath.Join(dir, "prefs.db"))
			require.NoError(t, err)
			t.Cleanup(func() { e.Close() })
			return e
		},
	}
}

func TestEngineSemantics(t *testing.T) {
	for name, newEngine := range engines(t) {
		t.Run(name, func(t *testing.T) {
			e := newEngine()

			ro, err := e.Begin("network", true)
			require.NoError(t, err)
			val, err := ro.GetUint("inPort", 7001)
			require.NoError(t, err)
			require.Equal(t, uint32(7001), val)
			require.ErrorIs(t, ro.PutUint("inPort", 1), ErrReadOnly)
			require.NoError(t, ro.End())

			rw, err := e.Begin("network", false)
			require.NoError(t, err)
			require.NoError(t, rw.PutUint("inPort", 9000))
			require.NoError(t, rw.PutUint("inPort", 9001))
			require.NoError(t, rw.End())
			require.ErrorIs(t, rw.PutUint("inPort", 1), ErrEnded)

			ro, err = e.Begin("network", true)
			require.NoError(t, err)
			val, err = ro.GetUint("inPort", 7001)
			require.NoError(t, err)
			require.Equal(t, uint32(9001), val)

			other, err := e.Begin("other", true)
			require.NoError(t, err)
			val, err = other.GetUint("inPort", 5)
			require.NoError(t, err)
			require.Equal(t, uint32(5), val)
		})
	}
}

func TestFileEnginePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "prefs.yaml")
	ns, err := NewFileEngine(path).Begin("network", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("thresh_dist", 250))
	require.NoError(t, ns.End())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "thresh_dist: 250")

	ns, err = NewFileEngine(path).Begin("network", true)
	require.NoError(t, err)
	val, err := ns.GetUint("thresh_dist", 100)
	require.NoError(t, err)
	require.Equal(t, uint32(250), val)
}

func TestFileEngineRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: [1, 2"), 0600))
	_, err := NewFileEngine(path).Begin("network", true)
	require.Error(t, err)
}

func TestMemoryEngineFailAfter(t *testing.T) {
	e := &MemoryEngine{FailAfter: 2}
	ns, err := e.Begin("network", false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("a", 1))
	require.NoError(t, ns.PutUint("b", 2))
	require.ErrorIs(t, ns.PutUint("c", 3), ErrInjected)
	require.Equal(t, map[string]uint32{"a": 1, "b": 2}, e.Keys("network"))
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	e, err := Open("yaml", filepath.Join(dir, "p.yaml"))
	require.NoError(t, err)
	require.IsType(t, &FileEngine{}, e)

	e, err = Open("sqlite", filepath.Join(dir, "p.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteEngine{}, e)
	require.NoError(t, e.(*SQLiteEngine).Close())

	_, err = Open("etcd", "")
	require.Error(t, err)
}
