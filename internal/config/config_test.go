package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"todoTracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_FromFile тестирует чтение yaml с заполнением умолчаний
func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  read_timeout: 5s
logging:
  development: true
repository:
  type: sqlite
sqlite:
  path: /tmp/todos.db
attachments:
  bucket: todo-attachments
  url_expiration: 2m
cors:
  allowed_origins:
    - http://localhost:3000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, config.RepositorySQLite, cfg.Repository.Type)
	assert.Equal(t, "/tmp/todos.db", cfg.SQLite.Path)
	assert.Equal(t, "todo-attachments", cfg.Attachments.Bucket)
	assert.Equal(t, "us-east-1", cfg.Attachments.Region)
	assert.Equal(t, 2*time.Minute, cfg.Attachments.URLExpiration)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 300, cfg.RateLimit.IPRequestsPerMinute)
}

// TestLoad_EnvOverrides тестирует переопределение через TODO_*
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
attachments:
  bucket: from-file
`)
	t.Setenv("TODO_ATTACHMENTS_BUCKET", "from-env")
	t.Setenv("TODO_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Attachments.Bucket)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, config.RepositoryInMemory, cfg.Repository.Type)
}

// TestLoad_MissingDefaultFile тестирует запуск только на умолчаниях и окружении
func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TODO_ATTACHMENTS_BUCKET", "env-bucket")

	cfg, err := config.Load(config.DefaultPath)
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Attachments.Bucket)
	assert.Equal(t, 300*time.Second, cfg.Attachments.URLExpiration)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, config.RepositoryInMemory, cfg.Repository.Type)
}

// TestLoad_MissingExplicitFile тестирует отказ на опечатке в явно заданном пути
func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("TODO_ATTACHMENTS_BUCKET", "env-bucket")

	tests := []struct {
		name string
		path string
	}{
		{name: "absolute path", path: filepath.Join(t.TempDir(), "typo.yml")},
		{name: "relative path", path: "configs/typo.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(tt.path)

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoad_BrokenYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := config.Load(path)
	assert.Error(t, err)
}

// TestConfig_Validate тестирует отказ на неполной конфигурации
func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
			Attachments: config.AttachmentsConfig{
				Bucket:        "b",
				URLExpiration: time.Minute,
			},
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *config.Config)
		expectError bool
	}{
		{name: "success - inmemory", mutate: func(c *config.Config) {}},
		{
			name: "success - postgres with url",
			mutate: func(c *config.Config) {
				c.Repository.Type = config.RepositoryPostgres
				c.Database.URL = "postgres://localhost/todos"
			},
		},
		{
			name:        "error - unknown repository",
			mutate:      func(c *config.Config) { c.Repository.Type = "dynamodb" },
			expectError: true,
		},
		{
			name:        "error - postgres without url",
			mutate:      func(c *config.Config) { c.Repository.Type = config.RepositoryPostgres },
			expectError: true,
		},
		{
			name:        "error - sqlite without path",
			mutate:      func(c *config.Config) { c.Repository.Type = config.RepositorySQLite },
			expectError: true,
		},
		{
			name:        "error - missing bucket",
			mutate:      func(c *config.Config) { c.Attachments.Bucket = "" },
			expectError: true,
		},
		{
			name:        "error - zero expiration",
			mutate:      func(c *config.Config) { c.Attachments.URLExpiration = 0 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
