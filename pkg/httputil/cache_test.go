package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	type payload struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}

	want := payload{Name: "manifest", Size: 4096}
	if err := c.Set("builds:1207658924", want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got payload
	ok, err := c.Get("builds:1207658924", &got)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() should hit after Set()")
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	var v string
	ok, err := c.Get("missing", &v)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() should miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Minute)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	// Age the entry past the TTL by rewinding its mtime.
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one cache file, got %d (err %v)", len(entries), err)
	}
	old := time.Now().Add(-2 * time.Minute)
	path := filepath.Join(dir, entries[0].Name())
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes() error: %v", err)
	}

	var v string
	ok, err := c.Get("key", &v)
	if ok {
		t.Error("Get() should not hit on expired entry")
	}
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Get() error = %v, want ErrExpired", err)
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 0)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	if err := c.Set("key", 42); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	old := time.Now().Add(-24 * 365 * time.Hour)
	path := filepath.Join(dir, entries[0].Name())
	_ = os.Chtimes(path, old, old)

	var v int
	ok, err := c.Get("key", &v)
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v), want hit", ok, err)
	}
	if v != 42 {
		t.Errorf("Get() = %d, want 42", v)
	}
}

func TestCacheNamespace(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}

	builds := c.Namespace("builds:")
	links := c.Namespace("links:")

	if err := builds.Set("123", "build-data"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := links.Set("123", "link-data"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var v string
	if ok, _ := builds.Get("123", &v); !ok || v != "build-data" {
		t.Errorf("builds.Get() = (%q, %v)", v, ok)
	}
	if ok, _ := links.Get("123", &v); !ok || v != "link-data" {
		t.Errorf("links.Get() = (%q, %v)", v, ok)
	}

	// Namespaces chain
	nested := c.Namespace("a:").Namespace("b:")
	if err := nested.Set("k", "nested"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if ok, _ := c.Namespace("a:b:").Get("k", &v); !ok || v != "nested" {
		t.Errorf("chained namespace Get() = (%q, %v)", v, ok)
	}
}
