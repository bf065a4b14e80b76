package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Session SessionConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	Backend string // "fs" or "sqlite"
	DataDir string
}

type LLMConfig struct {
	Provider   string // "openai" or "anthropic"
	BaseURL    string
	Model      string
	APIKey     string
	MaxTokens  int
	MaxRetries int
}

type SessionConfig struct {
	HistoryFiles int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5001,
		},
		Storage: StorageConfig{
			Backend: "fs",
			DataDir: ".",
		},
		LLM: LLMConfig{
			Provider:   "openai",
			BaseURL:    "https://api.openai.com/v1",
			Model:      "gpt-3.5-turbo",
			MaxTokens:  1024,
			MaxRetries: 0,
		},
		Session: SessionConfig{
			HistoryFiles: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store, and fails if no API key is found.
//
// On macOS the backend is UserDefaults (domain: com.profilechat.app) and the
// API key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/profilechat/config.json
// and the API key falls back to $XDG_DATA_HOME/profilechat/secrets.json.
//
// Environment variables (PROFILECHAT_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), newSecretStore(), true)
}

// LoadLocal is Load without the API key requirement, for commands that
// never call the completion backend.
func LoadLocal() (Config, error) {
	return loadWith(newPlatformBackend(), newSecretStore(), false)
}

func loadWith(b Backend, secrets SecretStore, requireKey bool) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(providerKeyEnv(cfg.LLM.Provider))
	}
	if cfg.LLM.APIKey == "" {
		if key, err := secrets.Get(secretService, secretAccount); err == nil {
			cfg.LLM.APIKey = strings.TrimSpace(key)
		}
	}

	if requireKey && cfg.LLM.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: LLM API key. "+
			"Set it via environment variable PROFILECHAT_LLM_API_KEY or %s%s",
			providerKeyEnv(cfg.LLM.Provider), apiKeyHint())
	}

	return cfg, nil
}

// providerKeyEnv names the provider's conventional API key variable.
func providerKeyEnv(provider string) string {
	if strings.EqualFold(provider, "anthropic") {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}
