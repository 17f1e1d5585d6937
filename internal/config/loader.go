package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads configuration from the global config file, then applies
// environment overrides (MULL_ADDR, MULL_DB, MULL_NOTIFY_URL,
// MULL_NOTIFY_API_KEY).
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MULL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MULL_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("MULL_NOTIFY_URL"); v != "" {
		cfg.Notify.BaseURL = v
	}
	if v := os.Getenv("MULL_NOTIFY_API_KEY"); v != "" {
		cfg.Notify.APIKey = v
	}
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mull", "config.yaml")
}
