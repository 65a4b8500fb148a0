// Package config loads pulsedesk configuration with viper:
// defaults < config file < PULSEDESK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Workspace configures one backend connection.
type Workspace struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
	Icon  string `mapstructure:"icon"`
}

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// DataDir holds the account store database.
	DataDir string `mapstructure:"data_dir"`

	Workspaces []Workspace `mapstructure:"workspaces"`
}

// Load reads configuration, optionally from an explicit config file path.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("data_dir", defaultDataDir())

	v.SetEnvPrefix("PULSEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pulsedesk")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pulsedesk"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional unless explicitly specified.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		if ws.ID == "" {
			return fmt.Errorf("workspace %q: id is required", ws.Name)
		}
		if ws.URL == "" {
			return fmt.Errorf("workspace %s: url is required", ws.ID)
		}
		if _, dup := seen[ws.ID]; dup {
			return fmt.Errorf("workspace %s: duplicate id", ws.ID)
		}
		seen[ws.ID] = struct{}{}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "pulsedesk")
}
