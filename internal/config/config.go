// Package config loads server configuration from a YAML file with
// environment variable overrides (prefix WORKSTATION_, dots become
// underscores).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
}

// DatabaseConfig holds the Postgres snapshot store settings. With Enabled
// false the server keeps snapshots in memory only, the same way the original
// deployment degraded when its store was unreachable.
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// GameConfig holds gameplay defaults and catalog locations.
type GameConfig struct {
	StartingLife     int    `mapstructure:"starting_life"`
	StartingHandSize int    `mapstructure:"starting_hand_size"`
	CardDatabasePath string `mapstructure:"card_database_path"`
	DeckDir          string `mapstructure:"deck_dir"`
	HistorySize      int    `mapstructure:"history_size"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file. A missing file is not an
// error; defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.http_addr", ":9000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.write_wait", 10*time.Second)
	v.SetDefault("server.send_buffer", 64)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("game.starting_life", 20)
	v.SetDefault("game.starting_hand_size", 7)
	v.SetDefault("game.card_database_path", "data/cards.json")
	v.SetDefault("game.deck_dir", "data/decks")
	v.SetDefault("game.history_size", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("WORKSTATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Enabled && cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required when database.enabled is true")
	}

	return &cfg, nil
}
