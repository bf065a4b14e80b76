package config

import (
	"fmt"
	"strconv"
)

// KeyInfo is one row of `profilechat config show`.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll lists every key with its effective value. Secrets are reported as
// (set) or (unset), never by value.
func ShowAll(cfg Config) []KeyInfo {
	out := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		v := s.value(cfg)
		if s.secret {
			v = maskSecret(v)
		}
		out = append(out, KeyInfo{Key: s.key, EnvVar: s.env, Value: v})
	}
	return out
}

func maskSecret(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "(set)"
}

// SetKey persists a key to the platform backend, or to the platform secret
// store for llm.api_key.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), newSecretStore(), key, value)
}

func setKeyWith(b Backend, secrets SecretStore, key, value string) error {
	s, ok := lookupKey(key)
	switch {
	case !ok:
		return fmt.Errorf("unknown config key %q (valid: %v)", key, ValidKeys())
	case s.secret:
		return secrets.Set(secretService, secretAccount, value)
	case s.num != nil:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects an integer: %w", key, err)
		}
		return b.SetInt(key, i)
	default:
		return b.SetString(key, value)
	}
}

func lookupKey(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// ValidKeys returns the settable key names in display order.
func ValidKeys() []string {
	keys := make([]string, len(specs))
	for i, s := range specs {
		keys[i] = s.key
	}
	return keys
}
