package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/depotdl/depotdl/pkg/errors"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform != "windows" {
		t.Errorf("Platform = %q, want default windows", cfg.Platform)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
	if cfg.CacheTTL.Std() != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL.Std())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
platform = "linux"
workers = 8
cache_ttl = "30m"

[redis]
addr = "localhost:6379"
db = 2

[endpoints]
content_system = "https://cs.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Platform != "linux" {
		t.Errorf("Platform = %q, want linux", cfg.Platform)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.CacheTTL.Std() != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", cfg.CacheTTL.Std())
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Endpoints.ContentSystem != "https://cs.example.com" {
		t.Errorf("Endpoints = %+v", cfg.Endpoints)
	}
	// Unset fields keep their defaults.
	if cfg.CacheDir == "" {
		t.Error("CacheDir lost its default")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("platform = ["), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load = %v, want INVALID_INPUT", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		wantCode errors.Code
	}{
		{"bad platform", func(c *Config) { c.Platform = "amiga" }, errors.ErrCodeInvalidPlatform},
		{"zero workers", func(c *Config) { c.Workers = 0 }, errors.ErrCodeInvalidInput},
		{"negative ttl", func(c *Config) { c.CacheTTL = -1 }, errors.ErrCodeInvalidInput},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }, errors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantCode) {
				t.Errorf("Validate = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestTokenReading(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	cfg.TokenPath = filepath.Join(dir, "absent")
	if tok, err := cfg.Token(); err != nil || tok != "" {
		t.Errorf("Token(absent) = %q, %v, want empty", tok, err)
	}

	cfg.TokenPath = filepath.Join(dir, "token")
	if err := os.WriteFile(cfg.TokenPath, []byte("  tok-123\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if tok, err := cfg.Token(); err != nil || tok != "tok-123" {
		t.Errorf("Token = %q, %v, want tok-123", tok, err)
	}
}
