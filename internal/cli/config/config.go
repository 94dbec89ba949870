package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the insdb tool configuration.
type Config struct {
	Storage string       `mapstructure:"storage"`
	Server  ServerConfig `mapstructure:"server"`
}

// ServerConfig holds the connection settings for a remote database.
type ServerConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load loads the configuration from insdb.yml or insdb.yaml.
// Settings can be overridden through INSDB_* environment variables,
// e.g. INSDB_SERVER_ADDRESS or INSDB_STORAGE.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("storage", ".")
	v.SetDefault("server.address", "")
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")

	v.SetConfigName("insdb")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/insdb")

	v.SetEnvPrefix("INSDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Remote reports whether the configuration points at a remote server
// rather than a local storage directory.
func (c *Config) Remote() bool {
	return c.Server.Address != ""
}
