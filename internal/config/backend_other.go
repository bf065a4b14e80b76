//go:build !darwin

package config

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

func apiKeyHint() string {
	return ", or run: profilechat config set llm.api_key <key> (stored in " + secretsPath() + ")"
}

// fileBackend keeps keys as a flat JSON object at
// $XDG_CONFIG_HOME/profilechat/config.json.
type fileBackend struct {
	path   string
	values map[string]any
}

func newPlatformBackend() Backend {
	b := &fileBackend{path: userPath("XDG_CONFIG_HOME", ".config", "config.json")}
	if _, err := readJSONFile(b.path, &b.values); err != nil {
		slog.Warn("ignoring unreadable config file, using defaults", "path", b.path, "error", err)
	}
	if b.values == nil {
		b.values = make(map[string]any)
	}
	return b
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return "", false, nil
	}
	if s, isString := v.(string); isString {
		return s, true, nil
	}
	return fmt.Sprint(v), true, nil
}

// GetInt accepts JSON numbers and numeric strings.
func (b *fileBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n > math.MaxInt {
			return 0, true, fmt.Errorf("%s: %v is not an integer", key, n)
		}
		return int(n), true, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, true, fmt.Errorf("%s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("%s: unexpected %T", key, v)
	}
}

func (b *fileBackend) SetString(key, val string) error {
	b.values[key] = val
	return writeJSONFile(b.path, b.values)
}

func (b *fileBackend) SetInt(key string, val int) error {
	b.values[key] = val
	return writeJSONFile(b.path, b.values)
}
