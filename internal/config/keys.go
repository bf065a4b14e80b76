package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// keySpec binds a dotted config key to one Config field. Exactly one of str
// and num is set.
type keySpec struct {
	key    string
	env    string
	secret bool
	str    func(*Config) *string
	num    func(*Config) *int
}

func strKey(key string, field func(*Config) *string) keySpec {
	return keySpec{key: key, env: envName(key), str: field}
}

func intKey(key string, field func(*Config) *int) keySpec {
	return keySpec{key: key, env: envName(key), num: field}
}

// envName maps "llm.max_tokens" to "PROFILECHAT_LLM_MAX_TOKENS".
func envName(key string) string {
	return "PROFILECHAT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var specs = []keySpec{
	strKey("server.host", func(c *Config) *string { return &c.Server.Host }),
	intKey("server.port", func(c *Config) *int { return &c.Server.Port }),
	strKey("storage.backend", func(c *Config) *string { return &c.Storage.Backend }),
	strKey("storage.data_dir", func(c *Config) *string { return &c.Storage.DataDir }),
	strKey("llm.provider", func(c *Config) *string { return &c.LLM.Provider }),
	strKey("llm.base_url", func(c *Config) *string { return &c.LLM.BaseURL }),
	strKey("llm.model", func(c *Config) *string { return &c.LLM.Model }),
	intKey("llm.max_tokens", func(c *Config) *int { return &c.LLM.MaxTokens }),
	intKey("llm.max_retries", func(c *Config) *int { return &c.LLM.MaxRetries }),
	{
		key:    "llm.api_key",
		env:    envName("llm.api_key"),
		secret: true,
		str:    func(c *Config) *string { return &c.LLM.APIKey },
	},
	intKey("session.history_files", func(c *Config) *int { return &c.Session.HistoryFiles }),
	strKey("log.level", func(c *Config) *string { return &c.Log.Level }),
}

// value renders the field for display.
func (s keySpec) value(cfg Config) string {
	if s.num != nil {
		return strconv.Itoa(*s.num(&cfg))
	}
	return *s.str(&cfg)
}

// applyBackend copies every non-secret key the backend holds into cfg.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.num != nil {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				*s.num(cfg) = v
			}
			continue
		}
		v, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if ok {
			*s.str(cfg) = v
		}
	}
	return nil
}

// applyEnvOverrides copies non-empty PROFILECHAT_* variables into cfg. A
// malformed integer is logged and skipped.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		if s.str != nil {
			*s.str(cfg) = raw
			continue
		}
		i, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("ignoring non-integer environment override", "var", s.env, "value", raw, "error", err)
			continue
		}
		*s.num(cfg) = i
	}
}
