package config

// Config represents the full Mull configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Server configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Notification gateway configuration
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// StorageConfig configures the task database
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// NotifyConfig configures the notification gateway client
type NotifyConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}
