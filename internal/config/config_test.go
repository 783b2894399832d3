package config

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/sectionize"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.PublishEnabled() {
		t.Error("expected publishing disabled without PATHSTORE_URL")
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %v", cfg.JobTTL)
	}

	opts, err := cfg.SectionizeOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := sectionize.DefaultOptions()
	if opts.MaxHeadingDepth != def.MaxHeadingDepth || opts.OrphanPolicy != def.OrphanPolicy {
		t.Errorf("expected default options, got %+v", opts)
	}
	if len(opts.ContentNodeTypes) != 3 || len(opts.MarkerTypes) != 1 {
		t.Errorf("expected default kind lists, got %+v", opts)
	}
}

func TestLoad_SectioningOverrides(t *testing.T) {
	t.Setenv("MAX_HEADING_DEPTH", "3")
	t.Setenv("ORPHAN_POLICY", "Wrap-Intro")
	t.Setenv("CONTENT_NODE_TYPES", "paragraph, list")
	t.Setenv("MARKER_TYPES", "")
	t.Setenv("WORKER_COUNT", "-1")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected non-positive worker count to fall back to 4, got %d", cfg.WorkerCount)
	}

	opts, err := cfg.SectionizeOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.MaxHeadingDepth != 3 {
		t.Errorf("expected depth 3, got %d", opts.MaxHeadingDepth)
	}
	if opts.OrphanPolicy != sectionize.WrapIntro {
		t.Errorf("expected wrap-intro, got %q", opts.OrphanPolicy)
	}
	want := []doctree.Kind{doctree.KindParagraph, doctree.KindList}
	if len(opts.ContentNodeTypes) != 2 || opts.ContentNodeTypes[0] != want[0] || opts.ContentNodeTypes[1] != want[1] {
		t.Errorf("expected %v, got %v", want, opts.ContentNodeTypes)
	}
	if opts.MarkerTypes == nil || len(opts.MarkerTypes) != 0 {
		t.Errorf("expected an explicitly empty marker list, got %v", opts.MarkerTypes)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Load()
		cfg.APIKey = "secret"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg := valid()
	cfg.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}

	cfg = valid()
	cfg.PathstoreURL = "http://pathstore:8080"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pathstore url without key")
	}
	cfg.PathstoreAPIKey = "ps"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected pathstore config to validate, got %v", err)
	}

	cfg = valid()
	cfg.OrphanPolicy = "adopt"
	if err := cfg.Validate(); !errors.Is(err, sectionize.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions for bad policy, got %v", err)
	}

	cfg = valid()
	cfg.MaxHeadingDepth = 0
	if err := cfg.Validate(); !errors.Is(err, sectionize.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions for depth 0, got %v", err)
	}

	cfg = valid()
	cfg.MarkerTypes = []doctree.Kind{doctree.KindHeading}
	if err := cfg.Validate(); !errors.Is(err, sectionize.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions for heading marker, got %v", err)
	}
}
