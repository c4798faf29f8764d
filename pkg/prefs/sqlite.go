package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS prefs (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLiteEngine stores namespaces in a single SQLite table. Each PutUint
// is its own autocommit statement.
type SQLiteEngine struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteEngine, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating prefs directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs db: %w", err)
	}
	return &SQLiteEngine{db: db}, nil
}

// Close closes the database.
func (e *SQLiteEngine) Close() error {
	return e.db.Close()
}

// Begin implements Engine.
func (e *SQLiteEngine) Begin(namespace string, readOnly bool) (Namespace, error) {
	return &sqliteNamespace{db: e.db, name: namespace, readOnly: readOnly}, nil
}

type sqliteNamespace struct {
	db       *sql.DB
	name     string
	readOnly bool
	ended    bool
}

func (n *sqliteNamespace) GetUint(key string, def uint32) (uint32, error) {
	if n.ended {
		return def, ErrEnded
	}
	var val int64
	err := n.db.QueryRow(`SELECT value FROM prefs WHERE namespace = ? AND key = ?`, n.name, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("get %s/%s: %w", n.name, key, err)
	}
	return uint32(val), nil
}

func (n *sqliteNamespace) PutUint(key string, val uint32) error {
	if n.ended {
		return ErrEnded
	}
	if n.readOnly {
		return ErrReadOnly
	}
	_, err := n.db.Exec(`INSERT INTO prefs (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`,
		n.name, key, int64(val))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", n.name, key, err)
	}
	return nil
}

func (n *sqliteNamespace) End() error {
	n.ended = true
	return nil
}
