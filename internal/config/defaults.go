package config

import (
	"os"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DBPath: "~/.mull/mull.db",
		},
		Notify: NotifyConfig{
			BaseURL: "http://localhost:9090",
		},
	}
}

// WriteDefault writes the default configuration to a file
func WriteDefault(path string) error {
	content := `# Mull Configuration
version: "1"

# HTTP API server
server:
  addr: ":8080"

# Task database
storage:
  db_path: ~/.mull/mull.db

# Notification gateway
notify:
  base_url: http://localhost:9090
  # api_key: set via MULL_NOTIFY_API_KEY instead of committing it here
`
	return os.WriteFile(path, []byte(content), 0644)
}
