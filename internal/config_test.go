package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/menuboard/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if !cfg.Backend.UnverifiedJWTFallback {
		t.Error("unverified JWT fallback should default to on")
	}
	if !cfg.App.RateLimit.Enabled() {
		t.Error("rate limit should default to on")
	}
}

func TestBackendConfig_CredentialsOptional(t *testing.T) {
	cfg := BackendConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty backend config should pass: %v", err)
	}
}

func TestBackendConfig_InvalidURL(t *testing.T) {
	cfg := BackendConfig{URL: "not a url"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid URL should fail validation")
	}
	if !strings.Contains(err.Error(), "URL") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRateLimitConfig(t *testing.T) {
	off := RateLimitConfig{}
	if err := off.Validate(); err != nil {
		t.Fatalf("disabled rate limit should pass: %v", err)
	}
	if off.Enabled() {
		t.Error("zero rps should be disabled")
	}

	noBurst := RateLimitConfig{RPS: 2}
	if err := noBurst.Validate(); err == nil {
		t.Error("rps without burst should fail")
	}

	negative := RateLimitConfig{RPS: -1, Burst: 1}
	if err := negative.Validate(); err == nil {
		t.Error("negative rps should fail")
	}
}

func TestStoreConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.BlobDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch missing blob dir")
	}
}

func TestMetricsConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := MetricsConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled metrics without path should fail")
	}
	cfg.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled metrics should pass: %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SUPABASE_URL", "https://demo.supabase.co")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
  cors_origins: ["http://localhost:3000"]
backend:
  url: ${TEST_SUPABASE_URL}
  unverified_jwt_fallback: false
store:
  sqlite_path: ./test.db
  blob_dir: ./test-blobs
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "https://demo.supabase.co" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Backend.UnverifiedJWTFallback {
		t.Error("fallback should be off")
	}
	if cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %s", cfg.App.LogLevel)
	}
	if len(cfg.App.CORSOrigins) != 1 {
		t.Errorf("cors origins = %v", cfg.App.CORSOrigins)
	}
	// Untouched sections keep their defaults.
	if cfg.Backend.Bucket != "assets" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("defaults lost: bucket=%q metrics=%q", cfg.Backend.Bucket, cfg.Metrics.Path)
	}
}
