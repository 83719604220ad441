package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: questforge
    user: quest
  redis:
    host: localhost
auth:
  jwt_secret: test-secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 15, cfg.LLM.Timeout)
	assert.Equal(t, 400, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.8, cfg.LLM.Temperature, 0.0001)
	assert.True(t, cfg.QuestGen.UseAIDefault)
	assert.Equal(t, "/metrics", cfg.Metrics.Prometheus.Path)
	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LLM_PROVIDER", "mock")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{
				Postgres: PostgresConfig{Host: "db", Database: "q", User: "u"},
				Redis:    RedisConfig{Host: "redis"},
			},
			Auth: AuthConfig{JWTSecret: "s"},
			LLM:  LLMConfig{Timeout: 15},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing postgres host", mutate: func(c *Config) { c.Database.Postgres.Host = "" }, wantErr: "database.postgres.host"},
		{name: "missing redis host", mutate: func(c *Config) { c.Database.Redis.Host = "" }, wantErr: "database.redis.host"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "auth.jwt_secret"},
		{name: "openai without key", mutate: func(c *Config) { c.LLM.Provider = "openai" }, wantErr: "llm.api_key"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "skynet" }, wantErr: "unknown llm.provider"},
		{name: "zero timeout", mutate: func(c *Config) { c.LLM.Timeout = 0 }, wantErr: "llm.timeout"},
		{
			name:    "notifications without webhook",
			mutate:  func(c *Config) { c.Notifications.Enabled = true },
			wantErr: "notifications.webhook_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_URL(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "q", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/q?sslmode=disable", c.URL())
	assert.Contains(t, c.DSN(), "dbname=q")
}
