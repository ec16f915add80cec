// Package config loads coordinator configuration from a yaml file and
// environment overrides (prefix INVSYNC_, dots become underscores).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full coordinator configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	BanDB   BanDBConfig   `mapstructure:"bandb"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Janitor JanitorConfig `mapstructure:"janitor"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig configures the HTTP/websocket listener
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig selects the room/presence store
type StorageConfig struct {
	// Backend is "memory" or "redis"
	Backend  string `mapstructure:"backend"`
	RedisURL string `mapstructure:"redis_url"`
}

// BanDBConfig configures the external moderation database. An empty DSN
// disables it: bans are held in memory and lost on restart.
type BanDBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// AdminConfig configures the admin key protecting the moderation endpoints
type AdminConfig struct {
	// KeyHash is the bcrypt hash of the admin key
	KeyHash string `mapstructure:"key_hash"`
}

// JanitorConfig tunes the background sweeps
type JanitorConfig struct {
	DisconnectGrace  time.Duration `mapstructure:"disconnect_grace"`
	RoomSweepEvery   time.Duration `mapstructure:"room_sweep_every"`
	MirrorSweepEvery time.Duration `mapstructure:"mirror_sweep_every"`
	MirrorMaxAge     time.Duration `mapstructure:"mirror_max_age"`
	BanSweepEvery    time.Duration `mapstructure:"ban_sweep_every"`
}

// LogConfig configures logging output
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `mapstructure:"level"`
	// Format is text or json
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration, ignoring files and environment
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Load without a file only fails when the environment holds a bad
		// backend override; fall back to the hard defaults.
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Storage: StorageConfig{Backend: "memory"},
			Janitor: JanitorConfig{
				DisconnectGrace:  8 * time.Second,
				RoomSweepEvery:   2 * time.Minute,
				MirrorSweepEvery: 3 * time.Minute,
				MirrorMaxAge:     30 * time.Minute,
				BanSweepEvery:    2 * time.Minute,
			},
			Log: LogConfig{Level: "info", Format: "text"},
		}
	}
	return cfg
}

// Load reads configuration from the given file (optional) plus environment
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("INVSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Storage.Backend != "memory" && cfg.Storage.Backend != "redis" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.redis_url", "redis://localhost:6379")

	v.SetDefault("bandb.dsn", "")
	v.SetDefault("admin.key_hash", "")

	v.SetDefault("janitor.disconnect_grace", 8*time.Second)
	v.SetDefault("janitor.room_sweep_every", 2*time.Minute)
	v.SetDefault("janitor.mirror_sweep_every", 3*time.Minute)
	v.SetDefault("janitor.mirror_max_age", 30*time.Minute)
	v.SetDefault("janitor.ban_sweep_every", 2*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
