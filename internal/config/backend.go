package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Backend is where non-secret keys persist between runs: `defaults` on macOS,
// a JSON file elsewhere.
type Backend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
}

// SecretStore holds llm.api_key outside the plain backend.
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

const (
	secretService = "profilechat"
	secretAccount = "llm_api_key"
)

// userPath resolves name under $envVar/profilechat, falling back to
// ~/homeRel/profilechat.
func userPath(envVar, homeRel, name string) string {
	dir := os.Getenv(envVar)
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, homeRel)
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "profilechat", name)
}

// readJSONFile decodes path into v. A missing file reports found=false.
func readJSONFile(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// writeJSONFile replaces path with the indented encoding of v. The file and
// its directory are private to the user.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
