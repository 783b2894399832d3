// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/sectionize"
)

type Config struct {
	Port string

	// Pathstore connection. Publishing is disabled when PathstoreURL is empty.
	PathstoreURL    string
	PathstoreAPIKey string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentStore int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Sectioning defaults, overridable per request.
	MaxHeadingDepth  int
	OrphanPolicy     string
	ContentNodeTypes []doctree.Kind
	MarkerTypes      []doctree.Kind
}

func Load() Config {
	defaults := sectionize.DefaultOptions()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		APIKey: os.Getenv("DOCSECTION_API_KEY"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentStore: envInt("MAX_CONCURRENT_STORE", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1500),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		MaxHeadingDepth:  envInt("MAX_HEADING_DEPTH", defaults.MaxHeadingDepth),
		OrphanPolicy:     envOr("ORPHAN_POLICY", string(defaults.OrphanPolicy)),
		ContentNodeTypes: envKinds("CONTENT_NODE_TYPES", defaults.ContentNodeTypes),
		MarkerTypes:      envKinds("MARKER_TYPES", defaults.MarkerTypes),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1500
	}
	if cfg.DefaultChunkOverlap <= 0 {
		cfg.DefaultChunkOverlap = 200
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// SectionizeOptions builds the default transform options.
func (c Config) SectionizeOptions() (sectionize.Options, error) {
	policy, err := sectionize.ParseOrphanPolicy(c.OrphanPolicy)
	if err != nil {
		return sectionize.Options{}, err
	}
	return sectionize.Options{
		MaxHeadingDepth:  c.MaxHeadingDepth,
		ContentNodeTypes: c.ContentNodeTypes,
		MarkerTypes:      c.MarkerTypes,
		OrphanPolicy:     policy,
	}, nil
}

// PublishEnabled reports whether results go to pathstore.
func (c Config) PublishEnabled() bool {
	return c.PathstoreURL != ""
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSECTION_API_KEY is required")
	}
	if c.PublishEnabled() && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	opts, err := c.SectionizeOptions()
	if err != nil {
		return fmt.Errorf("ORPHAN_POLICY: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("sectioning defaults: %w", err)
	}
	return nil
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

// envKinds reads a comma-separated list of node kinds. A set but blank
// value yields an empty list.
func envKinds(key string, fallback []doctree.Kind) []doctree.Kind {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if strings.TrimSpace(v) == "" {
		return []doctree.Kind{}
	}
	return sectionize.ParseKinds(v)
}
