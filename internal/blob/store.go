// Package blob provides path-addressed text storage. Keys are slash-separated
// relative paths such as "chat_history/chat_20250101_120000.txt".
package blob

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a requested key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPath is returned for keys that are absolute or escape the store root.
	ErrInvalidPath = errors.New("invalid path")
)

// Store is the storage surface used by the history log and the profile store.
type Store interface {
	// Read returns the full content stored under key.
	Read(key string) (string, error)

	// Write replaces the content stored under key.
	Write(key, content string) error

	// Append adds content to the end of key, creating it if needed. Each call
	// is a single write that is flushed before returning.
	Append(key, content string) error

	// Exists reports whether key names an existing entry.
	Exists(key string) (bool, error)

	// MkdirAll ensures the directory dir exists.
	MkdirAll(dir string) error

	// List returns the keys directly under dir, sorted ascending by name.
	// A missing directory yields an empty list.
	List(dir string) ([]string, error)

	Close() error
}

// CleanKey validates key and returns its canonical slash form.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidPath
	}
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.HasPrefix(key, "/") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// Open returns the Store for the named backend ("fs" or "sqlite") rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "fs", "file":
		s, err := OpenFS(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want fs or sqlite)", backend)
	}
}
