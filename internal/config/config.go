// Package config loads the depotdl configuration file.
//
// Configuration lives in a TOML file, by default
// ~/.config/depotdl/config.toml. Every field has a working default; a
// missing file is not an error, so a fresh install runs without any setup.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/depotdl/depotdl/pkg/errors"
)

const appName = "depotdl"

// Duration wraps time.Duration so TOML values can be written as "24h" or
// "30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Redis configures the optional shared cache backend. An empty Addr
// selects the file-backed cache instead.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Endpoints overrides the default API hosts; normally left empty.
type Endpoints struct {
	ContentSystem string `toml:"content_system"`
	API           string `toml:"api"`
	Embed         string `toml:"embed"`
}

// Config is the decoded configuration file.
type Config struct {
	// CacheDir holds HTTP response caches and the persisted manifest
	// store. Defaults to ~/.cache/depotdl.
	CacheDir string `toml:"cache_dir"`

	// TokenPath is the file the bearer token is read from. Acquiring the
	// token (OAuth flows) is out of scope; other tooling writes this file.
	TokenPath string `toml:"token_path"`

	// Platform is the default build platform: windows, osx, or linux.
	Platform string `toml:"platform"`

	// CacheTTL bounds the age of cached listing responses.
	CacheTTL Duration `toml:"cache_ttl"`

	// Workers caps parallel transfer workers handed to the executor.
	Workers int `toml:"workers"`

	Redis     Redis     `toml:"redis"`
	Endpoints Endpoints `toml:"endpoints"`
}

var validPlatforms = map[string]bool{"windows": true, "osx": true, "linux": true}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		CacheDir:  defaultCacheDir(),
		TokenPath: defaultTokenPath(),
		Platform:  "windows",
		CacheTTL:  Duration(time.Hour),
		Workers:   4,
	}
}

// Load reads the TOML file at path, or the default location when path is
// empty. A missing file yields the defaults. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, cfg.Validate()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values no command could work with.
func (c *Config) Validate() error {
	if !validPlatforms[c.Platform] {
		return errors.New(errors.ErrCodeInvalidPlatform, "platform %q (want windows, osx, or linux)", c.Platform)
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be at least 1, have %d", c.Workers)
	}
	if c.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache_ttl must not be negative")
	}
	if c.CacheDir == "" {
		return errors.New(errors.ErrCodeInvalidPath, "cache_dir is empty")
	}
	return nil
}

// Token reads the bearer token from TokenPath. An absent file means an
// unauthenticated session, not an error.
func (c *Config) Token() (string, error) {
	if c.TokenPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.TokenPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(data)), nil
}

// DefaultPath returns the default configuration file location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Sprintf("%s/config.toml", appName)
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func defaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".cache", appName)
}

func defaultTokenPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "token")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "token")
}
