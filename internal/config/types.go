package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Redaction RedactionConfig `yaml:"redaction" mapstructure:"redaction"`
	AWS       AWSConfig       `yaml:"aws" mapstructure:"aws"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// RedactionConfig controls the redaction engine wired in front of every tool
type RedactionConfig struct {
	// Profiles lists the built-in compliance profiles to load at startup,
	// in application order.
	Profiles []string `yaml:"profiles" mapstructure:"profiles"`
	// Detectors selects the generic scrubber detectors ("all" enables every
	// built-in detector).
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
}

// AWSConfig contains settings for the CloudWatch Logs and CodeDeploy clients
type AWSConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
	// MaxLookbackMinutes caps how far back error queries may reach.
	// Hard-limited to 60 to keep Insights costs bounded.
	MaxLookbackMinutes int           `yaml:"max_lookback_minutes" mapstructure:"max_lookback_minutes"`
	MaxResults         int           `yaml:"max_results" mapstructure:"max_results"`
	QueryTimeout       time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
	PollInterval       time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// CacheConfig contains Redis cache configuration for sanitized query results
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// AuditConfig contains the Postgres audit trail configuration
type AuditConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// SecurityConfig contains security guardrails configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string            `yaml:"level" mapstructure:"level"`
	Format string            `yaml:"format" mapstructure:"format"` // json or console
	File   LoggingFileConfig `yaml:"file" mapstructure:"file"`
}

// LoggingFileConfig contains file logging configuration
type LoggingFileConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
	MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
	Compress bool   `yaml:"compress" mapstructure:"compress"`
}

// WebSocketConfig contains WebSocket event hub configuration
type WebSocketConfig struct {
	Enabled        bool                  `yaml:"enabled" mapstructure:"enabled"`
	Path           string                `yaml:"path" mapstructure:"path"`
	AllowedOrigins []string              `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Events         WebSocketEventsConfig `yaml:"events" mapstructure:"events"`
}

// WebSocketEventsConfig gates which event types are broadcast
type WebSocketEventsConfig struct {
	BroadcastRedactions  bool `yaml:"broadcast_redactions" mapstructure:"broadcast_redactions"`
	BroadcastRequests    bool `yaml:"broadcast_requests" mapstructure:"broadcast_requests"`
	BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redaction: RedactionConfig{
			Profiles:  []string{"us_global"},
			Detectors: []string{"all"},
		},
		AWS: AWSConfig{
			Region:             "us-east-1",
			MaxLookbackMinutes: 60,
			MaxResults:         20,
			QueryTimeout:       30 * time.Second,
			PollInterval:       time.Second,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			KeyPrefix:      "sentinel",
			DefaultTTL:     time.Minute,
			MaxConnections: 10,
			MinIdleConns:   2,
		},
		Audit: AuditConfig{
			Enabled:         false,
			DatabaseURL:     "postgres://localhost:5432/sentinel?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:        true,
				RequestsPerMin: 60,
				Burst:          10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File: LoggingFileConfig{
				Enabled:  false,
				Path:     "logs/sentinel.log",
				MaxSize:  100, // MB
				MaxAge:   30,  // days
				Compress: true,
			},
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			Path:           "/ws",
			AllowedOrigins: []string{"*"},
			Events: WebSocketEventsConfig{
				BroadcastRedactions:  true,
				BroadcastRequests:    true,
				BroadcastSystem:      true,
				BroadcastConnections: true,
			},
		},
	}
}
