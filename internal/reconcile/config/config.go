package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/shared/firestore"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// MongoConfig holds the connection settings of the Firestore-compatible Mongo store
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"firestore_default"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"30s"`
	PageSize       int           `env:"LIST_PAGE_SIZE" envDefault:"500"`
}

// CollectionConfig names the collections the job reconciles
type CollectionConfig struct {
	Bots      string `env:"BOTS_COLLECTION" envDefault:"bots"`
	Users     string `env:"USERS_COLLECTION" envDefault:"users"`
	Favorites string `env:"FAVORITES_SUBCOLLECTION" envDefault:"favorites"`
}

// ConcurrencyConfig bounds the scan and delete fan-out. The default of 1 is
// sequential; larger values opt into parallel store calls.
type ConcurrencyConfig struct {
	Scan   int `env:"SCAN_CONCURRENCY" envDefault:"1"`
	Delete int `env:"DELETE_CONCURRENCY" envDefault:"1"`
}

// AuditConfig configures the optional Redis Stream audit trail
type AuditConfig struct {
	RedisURL string `env:"AUDIT_REDIS_URL"`
	Stream   string `env:"AUDIT_STREAM" envDefault:"reconcile:favorites:audit"`
	MaxLen   int64  `env:"AUDIT_STREAM_MAXLEN" envDefault:"100000"`
}

// MetricsConfig configures the optional Prometheus Pushgateway export
type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	JobName        string `env:"METRICS_JOB_NAME" envDefault:"favorites_reconciler"`
}

// Config holds all configuration for the reconciler.
type Config struct {
	Mongo       MongoConfig
	Collections CollectionConfig
	Concurrency ConcurrencyConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv parses the environment and applies defaults and validation.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "firestore_default",
			ConnectTimeout: 30 * time.Second,
			PageSize:       500,
		},
		Collections: CollectionConfig{
			Bots:      model.DefaultBotsCollection,
			Users:     model.DefaultUsersCollection,
			Favorites: model.DefaultFavoritesSubcollection,
		},
		Concurrency: ConcurrencyConfig{Scan: 1, Delete: 1},
		Audit:       AuditConfig{Stream: "reconcile:favorites:audit", MaxLen: 100000},
		Metrics:     MetricsConfig{JobName: "favorites_reconciler"},
	}
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("MONGODB_URI must not be empty")
	}
	if c.Mongo.Database == "" {
		return errors.New("MONGODB_DATABASE must not be empty")
	}
	if c.Mongo.PageSize <= 0 {
		return fmt.Errorf("LIST_PAGE_SIZE must be positive, got %d", c.Mongo.PageSize)
	}
	for name, id := range map[string]string{
		"BOTS_COLLECTION":         c.Collections.Bots,
		"USERS_COLLECTION":        c.Collections.Users,
		"FAVORITES_SUBCOLLECTION": c.Collections.Favorites,
	} {
		if !firestore.IsValidID(id) {
			return fmt.Errorf("%s is not a valid collection ID: %q", name, id)
		}
	}
	if c.Concurrency.Scan < 1 {
		c.Concurrency.Scan = 1
	}
	if c.Concurrency.Delete < 1 {
		c.Concurrency.Delete = 1
	}
	if c.Audit.RedisURL != "" && c.Audit.Stream == "" {
		return errors.New("AUDIT_STREAM must be set when AUDIT_REDIS_URL is set")
	}
	return nil
}
