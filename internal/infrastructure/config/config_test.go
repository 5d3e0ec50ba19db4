package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: Kitchen\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 100_000, cfg.Auth.PBKDF2Iterations)
	assert.Equal(t, 10, cfg.AI.HistorySize)
	assert.Equal(t, 30*time.Minute, cfg.AI.HistoryTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: postgres
  host: db
  port: 5433
  database: recipes
  username: cook
  password: secret
ai:
  history_size: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.AI.HistorySize)
	assert.Equal(t, "host=db port=5433 user=cook password=secret dbname=recipes sslmode=disable", cfg.GetDSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KITCHEN_SERVER_PORT", "7070")
	t.Setenv("KITCHEN_AUTH_SESSION_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.SessionSecret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Name: "Kitchen", Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite", Path: "kitchen.db"},
			Cache:    CacheConfig{Driver: "memory"},
			Auth:     AuthConfig{PBKDF2Iterations: 100_000},
			AI:       AIConfig{Provider: "openai", HistorySize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: "cache.driver"},
		{name: "weak kdf", mutate: func(c *Config) { c.Auth.PBKDF2Iterations = 1000 }, wantErr: "pbkdf2_iterations"},
		{name: "production without secret", mutate: func(c *Config) { c.App.Environment = "production" }, wantErr: "session_secret"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "empty history", mutate: func(c *Config) { c.AI.HistorySize = 0 }, wantErr: "history_size"},
		{name: "unknown ai provider", mutate: func(c *Config) { c.AI.Provider = "bard" }, wantErr: "ai.provider"},
		{name: "replicas need postgres", mutate: func(c *Config) { c.Database.ReadReplicas = []string{"replica-1"} }, wantErr: "read_replicas"},
		{name: "postgres replicas", mutate: func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.Database = "kitchen"
			c.Database.ReadReplicas = []string{"replica-1"}
		}},
		{name: "trusted proxies", mutate: func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "::1"} }},
		{name: "bad trusted proxy", mutate: func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} }, wantErr: "trusted_proxies"},
		{name: "bad trusted cidr", mutate: func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/40"} }, wantErr: "trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
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

func TestReplicaDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:     "primary",
		Port:     5432,
		Username: "kitchen",
		Password: "secret",
		Database: "kitchen",
		SSLMode:  "disable",
	}}

	assert.Equal(t, "host=primary port=5432 user=kitchen password=secret dbname=kitchen sslmode=disable", cfg.GetDSN())
	assert.Equal(t, "host=replica-1 port=5432 user=kitchen password=secret dbname=kitchen sslmode=disable", cfg.ReplicaDSN("replica-1"))
}
