package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DataDir is where the embedded store lives.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// DatabaseFile is the store filename inside DataDir.
	DatabaseFile string `mapstructure:"database_file" yaml:"database_file"`

	// LogFile is the path of the JSON log file.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	// FetchLimit caps how many messages a single folder sync retrieves.
	FetchLimit int `mapstructure:"fetch_limit" yaml:"fetch_limit"`

	// UseKeyring stores account secrets in the OS keyring instead of
	// the database.
	UseKeyring bool `mapstructure:"use_keyring" yaml:"use_keyring"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/missive/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "missive", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "missive")
	}
	return &AppConfig{
		DataDir:      dataDir,
		DatabaseFile: "missive.db",
		LogFile:      filepath.Join(dataDir, "missive.log"),
		FetchLimit:   50,
	}
}

// DatabasePath returns the full path of the embedded store file.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("database_file", defaults.DatabaseFile)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("fetch_limit", defaults.FetchLimit)
	v.SetDefault("use_keyring", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaults.FetchLimit
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("data_dir", cfg.DataDir)
	v.Set("database_file", cfg.DatabaseFile)
	v.Set("log_file", cfg.LogFile)
	v.Set("fetch_limit", cfg.FetchLimit)
	v.Set("use_keyring", cfg.UseKeyring)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
