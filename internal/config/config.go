// Package config handles configuration loading and validation for Corvid
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for Corvid
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	MaxConnections  int    `mapstructure:"max_connections"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
}

// StorageConfig holds storage engine configuration. There is no
// write-ahead log, checkpoint schedule, or buffer pool here — this
// core has no durability or crash-recovery story, and its one file
// substrate (pkg/storage.VolatileSubstrate) keeps everything resident
// in memory with a fixed page size — so the only knobs that survive
// are where the data directory's marker file lives and which init
// file to bootstrap the catalog from.
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	InitDataFile string `mapstructure:"init_data_file"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Default configuration values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5433,
			Host:            "localhost",
			MaxConnections:  100,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
		},
		Storage: StorageConfig{
			DataDir:      "./data",
			InitDataFile: "init.txt",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	cfg := defaultConfig()
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.max_connections", cfg.Server.MaxConnections)
	v.SetDefault("server.read_timeout_sec", cfg.Server.ReadTimeoutSec)
	v.SetDefault("server.write_timeout_sec", cfg.Server.WriteTimeoutSec)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.init_data_file", cfg.Storage.InitDataFile)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	// Environment variable support
	v.SetEnvPrefix("CORVID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// Search for config in common locations
		v.SetConfigName("corvid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.corvid")
		v.AddConfigPath("/etc/corvid")

		// It's okay if no config file is found - we use defaults
		_ = v.ReadInConfig()
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Set derived defaults
	if !filepath.IsAbs(cfg.Storage.InitDataFile) {
		cfg.Storage.InitDataFile = filepath.Join(cfg.Storage.DataDir, cfg.Storage.InitDataFile)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// ValidateDataDir checks if the data directory exists and is valid
func ValidateDataDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("cannot access data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path is not a directory: %s", dir)
	}

	// Check for marker file that indicates initialized DB
	markerPath := filepath.Join(dir, ".corvid")
	if _, err := os.Stat(markerPath); os.IsNotExist(err) {
		return fmt.Errorf("directory is not a Corvid data directory: %s", dir)
	}

	return nil
}

// InitDataDir creates and initializes a new data directory. There is
// no non-volatile file substrate in this core (pkg/storage only ships
// VolatileSubstrate), so this just marks dir as a Corvid data
// directory for ValidateDataDir — it does not lay out any on-disk
// file structure for the catalog to open, because nothing ever does.
func InitDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	markerPath := filepath.Join(dir, ".corvid")
	markerContent := []byte("Corvid Data Directory v1\n")
	if err := os.WriteFile(markerPath, markerContent, 0644); err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a default configuration file
func CreateDefaultConfig(path string, dataDir string) error {
	content := fmt.Sprintf(`# Corvid Configuration File

server:
  host: localhost
  port: 5433
  max_connections: 100
  read_timeout_sec: 30
  write_timeout_sec: 30

storage:
  data_dir: %s
  init_data_file: init.txt # init file to bootstrap the catalog from

log:
  level: info            # debug, info, warn, error
  format: text           # text or json
  output: stderr         # stderr, stdout, or file path
`, dataDir)

	return os.WriteFile(path, []byte(content), 0644)
}
