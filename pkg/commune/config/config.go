package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/commune-dev/commune/pkg/commune"
	repomemory "github.com/commune-dev/commune/pkg/commune/repo/memory"
	repomongo "github.com/commune-dev/commune/pkg/commune/repo/mongo"
	fsstorage "github.com/commune-dev/commune/pkg/commune/storage/fs"
	memorystorage "github.com/commune-dev/commune/pkg/commune/storage/memory"
	s3storage "github.com/commune-dev/commune/pkg/commune/storage/s3"
)

// ServerConfig represents server configuration for the commune service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration. DATABASE_URL is either "memory" or a
	// mongodb:// connection string.
	DatabaseURL  string `env:"DATABASE_URL" env-default:"memory"`
	DatabaseName string `env:"DATABASE_NAME" env-default:"commune"`

	// Collection names, overridable for shared clusters
	PagesCollection    string `env:"PAGES_COLLECTION" env-default:"pages"`
	PostsCollection    string `env:"POSTS_COLLECTION" env-default:"posts"`
	UsersCollection    string `env:"USERS_COLLECTION" env-default:"users"`
	GroupsCollection   string `env:"GROUPS_COLLECTION" env-default:"groups"`
	AccountsCollection string `env:"ACCOUNTS_COLLECTION" env-default:"accounts"`

	// Storage configuration for uploaded images
	StorageBackend   string `env:"STORAGE_BACKEND" env-default:"memory"` // "memory", "fs", "s3"
	StorageBaseDir   string `env:"STORAGE_BASE_DIR" env-default:"./data/images"`
	StorageURLPrefix string `env:"STORAGE_URL_PREFIX" env-default:""`

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" env-default:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3PresignDuration int    `env:"S3_PRESIGN_DURATION" env-default:"3600"`
}

// Load reads configuration from the environment on top of library defaults.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseURL != "memory" && !strings.HasPrefix(c.DatabaseURL, "mongodb://") &&
		!strings.HasPrefix(c.DatabaseURL, "mongodb+srv://") {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'mongodb://...')", c.DatabaseURL)
	}

	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.StorageBaseDir == "" {
			return errors.New("STORAGE_BASE_DIR is required for fs storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.StorageBackend)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (commune.Service, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	return commune.New(commune.WithRepository(repo))
}

// BuildRepository creates a Repository based on the configuration. A Mongo
// repository is pinged before it is returned so a dead cluster fails startup
// instead of the first request.
func (c *ServerConfig) BuildRepository(ctx context.Context) (commune.Repository, error) {
	if c.DatabaseURL == "memory" {
		return repomemory.New(), nil
	}

	cols := repomongo.Collections{
		Pages:    c.PagesCollection,
		Posts:    c.PostsCollection,
		Users:    c.UsersCollection,
		Groups:   c.GroupsCollection,
		Accounts: c.AccountsCollection,
	}
	repo, err := repomongo.Connect(ctx, c.DatabaseURL, c.DatabaseName, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return repo, nil
}

// BuildStorageBackend creates a BlobStore based on the configuration
func (c *ServerConfig) BuildStorageBackend() (commune.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.StorageBaseDir,
			URLPrefix: c.StorageURLPrefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
			PresignDuration: c.S3PresignDuration,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}
}
