package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthJWT    = "jwt"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":3001"`

	// Storage
	DataDir string `envconfig:"DATA_DIR" default:"./workspace"`
	DBPath  string `envconfig:"DB_PATH"` // defaults to <DATA_DIR>/kanban.db

	// Question templates
	TemplatesDir      string `envconfig:"TEMPLATES_DIR"` // defaults to <DATA_DIR>/templates/questions
	WatchTemplates    bool   `envconfig:"WATCH_TEMPLATES" default:"true"`
	TemplateCacheSize int    `envconfig:"TEMPLATE_CACHE_SIZE" default:"8"`

	// HTTP surface
	CORSOrigins    string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"100"`
	AuthMode       string `envconfig:"AUTH_MODE" default:"none"`
	APIKey         string `envconfig:"API_KEY"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	TLSCert        string `envconfig:"TLS_CERT"`
	TLSKey         string `envconfig:"TLS_KEY"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Generation history pruning
	RetentionMaxAge   time.Duration `envconfig:"RETENTION_MAX_AGE" default:"720h"`
	RetentionInterval time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// ResolvedDBPath returns DB_PATH, or kanban.db under DATA_DIR when unset.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "kanban.db")
}

// ResolvedTemplatesDir returns TEMPLATES_DIR, or templates/questions under DATA_DIR when unset.
func (c *Config) ResolvedTemplatesDir() string {
	if c.TemplatesDir != "" {
		return c.TemplatesDir
	}
	return filepath.Join(c.DataDir, "templates", "questions")
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthNone:
	case AuthAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=%s requires API_KEY", c.AuthMode)
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=%s requires JWT_SECRET", c.AuthMode)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	if c.TemplateCacheSize < 1 {
		return fmt.Errorf("TEMPLATE_CACHE_SIZE must be positive, got %d", c.TemplateCacheSize)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
