package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commune-dev/commune/pkg/commune/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseURL)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "pages", cfg.PagesCollection)
	assert.Equal(t, "accounts", cfg.AccountsCollection)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_BACKEND", "fs")
	t.Setenv("STORAGE_BASE_DIR", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "fs", cfg.StorageBackend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.ServerConfig)
		expectError bool
	}{
		{
			name:        "defaults are valid",
			mutate:      func(c *config.ServerConfig) {},
			expectError: false,
		},
		{
			name:        "mongodb url is valid",
			mutate:      func(c *config.ServerConfig) { c.DatabaseURL = "mongodb://localhost:27017" },
			expectError: false,
		},
		{
			name:        "postgres url is rejected",
			mutate:      func(c *config.ServerConfig) { c.DatabaseURL = "postgresql://localhost" },
			expectError: true,
		},
		{
			name:        "empty port is rejected",
			mutate:      func(c *config.ServerConfig) { c.Port = "" },
			expectError: true,
		},
		{
			name:        "unknown storage backend is rejected",
			mutate:      func(c *config.ServerConfig) { c.StorageBackend = "ftp" },
			expectError: true,
		},
		{
			name: "s3 without bucket is rejected",
			mutate: func(c *config.ServerConfig) {
				c.StorageBackend = "s3"
				c.S3Bucket = ""
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildService_Memory(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	svc, err := cfg.BuildService(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildStorageBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg, err := config.Load()
		require.NoError(t, err)

		store, err := cfg.BuildStorageBackend()
		assert.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("fs", func(t *testing.T) {
		cfg, err := config.Load()
		require.NoError(t, err)
		cfg.StorageBackend = "fs"
		cfg.StorageBaseDir = t.TempDir()

		store, err := cfg.BuildStorageBackend()
		assert.NoError(t, err)
		assert.NotNil(t, store)
	})
}
