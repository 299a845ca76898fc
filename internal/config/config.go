// Package config loads and validates the application configuration.
//
// Configuration is read from an optional YAML file; every field has a
// working local-dev default so `dated serve` runs with no file at all.
// The DATABASE_URL environment variable overrides the configured DSN.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// EnvDatabaseURL is the environment variable that overrides database.dsn.
const EnvDatabaseURL = "DATABASE_URL"

// Config is the root of the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig holds the connection string and pool tuning.
type DatabaseConfig struct {
	// DSN selects the backend by scheme: sqlite://, mysql:// or postgres://.
	// A bare path is treated as a SQLite file.
	DSN string `yaml:"dsn"`

	// SeedDemo creates and populates the demo users table on startup
	// when it is missing or empty.
	SeedDemo bool `yaml:"seedDemo"`

	MaxConns     int32         `yaml:"maxConns"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

// ExportConfig holds the optional object-storage target for CSV exports.
type ExportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
}

// EventsConfig holds the optional Kafka change-event settings.
type EventsConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	TopicPrefix string   `yaml:"topicPrefix"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the local-dev configuration: an embedded SQLite file,
// demo seeding on, export and events off.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          "sqlite://dated.db",
			SeedDemo:     true,
			MaxConns:     25,
			QueryTimeout: 30 * time.Second,
		},
		Events: EventsConfig{
			TopicPrefix: "dated",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Export.Enabled {
		if c.Export.Endpoint == "" {
			return errors.New("export.endpoint is required when export is enabled")
		}
		if c.Export.Bucket == "" {
			return errors.New("export.bucket is required when export is enabled")
		}
	}
	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return errors.New("events.brokers is required when events are enabled")
		}
		if c.Events.TopicPrefix == "" {
			return errors.New("events.topicPrefix is required when events are enabled")
		}
	}
	return nil
}
