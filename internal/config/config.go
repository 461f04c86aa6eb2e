// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	AssetsDir string `mapstructure:"assets_dir"`
}

// MongoConfig controls access to the document database.
type MongoConfig struct {
	URI               string `mapstructure:"uri"`
	Database          string `mapstructure:"database"`
	Collection        string `mapstructure:"collection"`
	ConnectTimeoutSec int    `mapstructure:"connect_timeout_seconds"`
}

// UploadsConfig sets the image upload directory and form limits.
type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// The environment names predate the config file and are kept verbatim.
	bindings := map[string]string{
		"server.port":    "PORT",
		"mongo.uri":      "MONGO_CONNECTION_STRING",
		"mongo.database": "MONGO_DB_NAME",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.assets_dir", "assets")
	v.SetDefault("mongo.collection", "recipes")
	v.SetDefault("mongo.connect_timeout_seconds", 30)
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_bytes", 10<<20)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required (MONGO_CONNECTION_STRING)")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required (MONGO_DB_NAME)")
	}
	if c.Mongo.ConnectTimeoutSec <= 0 {
		return fmt.Errorf("mongo.connect_timeout_seconds must be > 0")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("uploads.max_bytes must be > 0")
	}
	return nil
}

// ConnectTimeout converts the configured connection timeout into a duration.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Mongo.ConnectTimeoutSec) * time.Second
}
