package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const appName = "stfed"

type Config struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	DaemonPort     int           `mapstructure:"daemon_port"`
	DBPath         string        `mapstructure:"db_path"`
	HooksFile      string        `mapstructure:"hooks_file"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	RESTTimeout    time.Duration `mapstructure:"rest_timeout"`
	EventTimeout   time.Duration `mapstructure:"event_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

var Default = Config{
	DaemonPort:     8385,
	DBPath:         "stfed.db",
	HooksFile:      "hooks.toml",
	ReconnectDelay: 5 * time.Second,
	RESTTimeout:    10 * time.Second,
	EventTimeout:   time.Hour,
	PollInterval:   500 * time.Millisecond,
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/stfed on Linux.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}

	return filepath.Join(base, appName), nil
}

// Load reads config.toml from Dir. A missing url or api_key is taken from
// the local Syncthing configuration when one is found.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	return LoadFrom(dir)
}

func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetDefault("url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", filepath.Join(dir, Default.DBPath))
	v.SetDefault("hooks_file", filepath.Join(dir, Default.HooksFile))
	v.SetDefault("reconnect_delay", Default.ReconnectDelay)
	v.SetDefault("rest_timeout", Default.RESTTimeout)
	v.SetDefault("event_timeout", Default.EventTimeout)
	v.SetDefault("poll_interval", Default.PollInterval)

	v.SetEnvPrefix("STFED")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.URL == "" || cfg.APIKey == "" {
		if gui, err := FindSyncthingGUI(); err == nil {
			if cfg.URL == "" {
				cfg.URL = gui.URL()
			}
			if cfg.APIKey == "" {
				cfg.APIKey = gui.APIKey
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RequireAPI checks that Syncthing can be reached, which only the daemon needs.
func (c *Config) RequireAPI() error {
	if c.URL == "" || c.APIKey == "" {
		return fmt.Errorf("url and api_key are not configured and could not be read from the Syncthing config.xml, " +
			"please write them in config.toml")
	}

	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.DaemonPort < 0 || c.DaemonPort > 65535:
		return fmt.Errorf("invalid daemon_port %d", c.DaemonPort)
	case c.ReconnectDelay <= 0:
		return fmt.Errorf("reconnect_delay must be positive")
	case c.RESTTimeout <= 0 || c.EventTimeout <= 0:
		return fmt.Errorf("timeouts must be positive")
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive")
	}

	return nil
}
