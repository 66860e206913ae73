// Package config loads server settings from FUNDRAZOR_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MemoryDatabaseURL selects the in-memory store instead of PostgreSQL.
const MemoryDatabaseURL = "memory://"

type Config struct {
	DatabaseURL string // FUNDRAZOR_DATABASE_URL (required; "memory://" = in-memory store)
	GRPCAddr    string // FUNDRAZOR_GRPC_ADDR (default ":9090")
	HTTPAddr    string // FUNDRAZOR_HTTP_ADDR (default ":8080")
	NATSURL     string // FUNDRAZOR_NATS_URL (optional, empty = no events)
	AuthToken   string // FUNDRAZOR_AUTH_TOKEN (optional, empty = auth disabled)

	// Presence settings
	PresenceIdle time.Duration // FUNDRAZOR_PRESENCE_IDLE (default 2m)

	// Sync settings
	SyncInterval   time.Duration // FUNDRAZOR_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncEvents     bool          // FUNDRAZOR_SYNC_EVENTS (include event history in exports)
	SyncS3Bucket   string        // FUNDRAZOR_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FUNDRAZOR_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FUNDRAZOR_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // FUNDRAZOR_SYNC_S3_KEY (default "fundrazor/canvases.jsonl")
	SyncGitRepo    string        // FUNDRAZOR_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // FUNDRAZOR_SYNC_GIT_FILE (default "canvases.jsonl")
	SyncGitBranch  string        // FUNDRAZOR_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("FUNDRAZOR_DATABASE_URL"),
		GRPCAddr:       envOrDefault("FUNDRAZOR_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("FUNDRAZOR_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("FUNDRAZOR_NATS_URL"),
		AuthToken:      os.Getenv("FUNDRAZOR_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("FUNDRAZOR_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("FUNDRAZOR_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("FUNDRAZOR_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("FUNDRAZOR_SYNC_S3_KEY", "fundrazor/canvases.jsonl"),
		SyncGitRepo:    os.Getenv("FUNDRAZOR_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("FUNDRAZOR_SYNC_GIT_FILE", "canvases.jsonl"),
		SyncGitBranch:  envOrDefault("FUNDRAZOR_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("FUNDRAZOR_DATABASE_URL is required (use %q for an in-memory store)", MemoryDatabaseURL)
	}

	var err error
	if c.SyncInterval, err = envDuration("FUNDRAZOR_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}
	if c.PresenceIdle, err = envDuration("FUNDRAZOR_PRESENCE_IDLE", "2m"); err != nil {
		return nil, err
	}
	if v := os.Getenv("FUNDRAZOR_SYNC_EVENTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FUNDRAZOR_SYNC_EVENTS: %w", err)
		}
		c.SyncEvents = b
	}

	return c, nil
}

// InMemory reports whether the server should run without PostgreSQL.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}

// SyncEnabled reports whether a sync interval and at least one destination
// are configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
