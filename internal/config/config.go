package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dgallion1/sefreader/internal/chunker"
	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Pathstore connection. Publishing is off when PathstoreURL is empty.
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentStore int

	// Limits
	MaxUploadBytes       int64
	MaxDecompressedBytes int64

	// Paging
	PageSize    int
	PageOverlap int

	// Analysis
	Pairing      string
	LogicalOrder bool

	// Job state
	JobTTL time.Duration

	// Single-instance lock file
	LockPath string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentStore:   10,
		MaxUploadBytes:       52428800,  // 50MB
		MaxDecompressedBytes: 268435456, // 256MB
		PageSize:             2000,
		PageOverlap:          0,
		Pairing:              "positional",
		JobTTL:               1 * time.Hour,
		LockPath:             filepath.Join(os.TempDir(), "sefreader.lock"),
	}
}

// fileConfig is the TOML shape of the optional config file.
type fileConfig struct {
	Port                 string `toml:"port"`
	APIKey               string `toml:"api_key"`
	PathstoreURL         string `toml:"pathstore_url"`
	PathstoreAPIKey      string `toml:"pathstore_api_key"`
	WorkerCount          int    `toml:"worker_count"`
	MaxQueueSize         int    `toml:"max_queue_size"`
	MaxConcurrentStore   int    `toml:"max_concurrent_store"`
	MaxUploadBytes       int64  `toml:"max_upload_bytes"`
	MaxDecompressedBytes int64  `toml:"max_decompressed_bytes"`
	PageSize             int    `toml:"page_size"`
	PageOverlap          int    `toml:"page_overlap"`
	Pairing              string `toml:"pairing"`
	LogicalOrder         *bool  `toml:"logical_order"`
	JobTTL               string `toml:"job_ttl"`
	LockPath             string `toml:"lock_path"`
}

// Load builds the configuration from defaults, then the TOML file named by
// SEFREADER_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("SEFREADER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Port, f.Port)
	setString(&c.APIKey, f.APIKey)
	setString(&c.PathstoreURL, f.PathstoreURL)
	setString(&c.PathstoreAPIKey, f.PathstoreAPIKey)
	setInt(&c.WorkerCount, f.WorkerCount)
	setInt(&c.MaxQueueSize, f.MaxQueueSize)
	setInt(&c.MaxConcurrentStore, f.MaxConcurrentStore)
	setInt(&c.MaxUploadBytes, f.MaxUploadBytes)
	setInt(&c.MaxDecompressedBytes, f.MaxDecompressedBytes)
	setInt(&c.PageSize, f.PageSize)
	setInt(&c.PageOverlap, f.PageOverlap)
	setString(&c.Pairing, f.Pairing)
	setString(&c.LockPath, f.LockPath)
	if f.LogicalOrder != nil {
		c.LogicalOrder = *f.LogicalOrder
	}
	if f.JobTTL != "" {
		d, err := time.ParseDuration(f.JobTTL)
		if err != nil {
			return fmt.Errorf("parse config %s: job_ttl: %w", path, err)
		}
		c.JobTTL = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("SEFREADER_API_KEY", c.APIKey)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxConcurrentStore = envInt("MAX_CONCURRENT_STORE", c.MaxConcurrentStore)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MaxDecompressedBytes = envInt64("MAX_DECOMPRESSED_BYTES", c.MaxDecompressedBytes)

	c.PageSize = envInt("PAGE_SIZE", c.PageSize)
	c.PageOverlap = envInt("PAGE_OVERLAP", c.PageOverlap)

	c.Pairing = envOr("PAIRING", c.Pairing)
	c.LogicalOrder = envBool("LOGICAL_ORDER", c.LogicalOrder)

	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.LockPath = envOr("LOCK_PATH", c.LockPath)
}

func (c *Config) clamp() {
	def := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxConcurrentStore <= 0 {
		c.MaxConcurrentStore = def.MaxConcurrentStore
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.MaxDecompressedBytes < 0 {
		c.MaxDecompressedBytes = 0
	}
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	if c.PageOverlap < 0 {
		c.PageOverlap = 0
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SEFREADER_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if _, err := sef.ParsePairing(c.Pairing); err != nil {
		return fmt.Errorf("PAIRING: %w", err)
	}
	return nil
}

// AnalyzeOptions translates the analysis settings. Call Validate first; an
// unknown pairing name falls back to positional.
func (c Config) AnalyzeOptions() []sef.Option {
	pairing, _ := sef.ParsePairing(c.Pairing)
	opts := []sef.Option{
		sef.WithPairing(pairing),
		sef.WithMaxDecompressedSize(c.MaxDecompressedBytes),
	}
	if c.LogicalOrder {
		opts = append(opts, sef.WithLogicalOrder())
	}
	return opts
}

// ChunkConfig returns the paging settings.
func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{
		PageSize:    c.PageSize,
		PageOverlap: c.PageOverlap,
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt[T int | int64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
