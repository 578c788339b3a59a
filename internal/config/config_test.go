package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, AuthNone, cfg.AuthMode)
	assert.Equal(t, 8, cfg.TemplateCacheSize)
	assert.True(t, cfg.WatchTemplates)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("WATCH_TEMPLATES", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.RateLimitRPS)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.WatchTemplates)
	assert.False(t, cfg.IsDevelopment())
}

func TestResolvedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/srv/kanban"}
	assert.Equal(t, filepath.Join("/srv/kanban", "kanban.db"), cfg.ResolvedDBPath())
	assert.Equal(t, filepath.Join("/srv/kanban", "templates", "questions"), cfg.ResolvedTemplatesDir())

	cfg.DBPath = "/tmp/other.db"
	cfg.TemplatesDir = "/etc/questions"
	assert.Equal(t, "/tmp/other.db", cfg.ResolvedDBPath())
	assert.Equal(t, "/etc/questions", cfg.ResolvedTemplatesDir())
}

func TestValidate(t *testing.T) {
	base := Config{AuthMode: AuthNone, TemplateCacheSize: 8}
	require.NoError(t, base.Validate())

	apiKey := base
	apiKey.AuthMode = AuthAPIKey
	assert.Error(t, apiKey.Validate())
	apiKey.APIKey = "secret"
	assert.NoError(t, apiKey.Validate())

	jwtMode := base
	jwtMode.AuthMode = AuthJWT
	assert.Error(t, jwtMode.Validate())

	unknown := base
	unknown.AuthMode = "mtls"
	assert.Error(t, unknown.Validate())

	tls := base
	tls.TLSCert = "cert.pem"
	assert.Error(t, tls.Validate())

	cache := base
	cache.TemplateCacheSize = 0
	assert.Error(t, cache.Validate())
}

func TestLoad_InvalidAuth(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	_, err := Load()
	assert.Error(t, err)
}
