// Package cli implements the depotdl command-line interface.
//
// Commands cover the download preparation pipeline (download, repair,
// info), account data (library), and cache management. Byte transfer
// itself is delegated to an external executor consuming the emitted
// download plan; this CLI resolves builds, fetches and validates
// manifests, and acquires secure links.
//
// All commands support --verbose (-v) for debug-level logging and
// --config for a non-default configuration file. Loggers are passed
// through context.Context.
package cli

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/depotdl/depotdl/internal/config"
	"github.com/depotdl/depotdl/pkg/buildinfo"
	"github.com/depotdl/depotdl/pkg/cache"
	"github.com/depotdl/depotdl/pkg/depot"
	"github.com/depotdl/depotdl/pkg/gog"
	"github.com/depotdl/depotdl/pkg/httputil"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location; bound to the
	// --config persistent flag.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "depotdl",
		Short:        "depotdl prepares game-build downloads from the GOG content system",
		Long:         `depotdl resolves product builds, fetches and validates their manifests, and acquires time-limited secure download links, producing a plan an external download executor can act on.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to the configuration file")

	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.repairCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration honoring the --config flag.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.ConfigPath)
}

// newClient builds the API client from configuration: token, response
// cache, endpoint overrides.
func (c *CLI) newClient(cfg config.Config) (*gog.Client, error) {
	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}

	respCache, err := httputil.NewCache(filepath.Join(cfg.CacheDir, "http"), cfg.CacheTTL.Std())
	if err != nil {
		c.Logger.Warn("response cache unavailable, requests will not be cached", "err", err)
		respCache = nil
	}

	gcfg := gog.Config{
		Cache:            respCache,
		Logger:           c.Logger,
		ContentSystemURL: cfg.Endpoints.ContentSystem,
		APIURL:           cfg.Endpoints.API,
		EmbedURL:         cfg.Endpoints.Embed,
	}
	if token != "" {
		gcfg.Token = gog.StaticToken(token)
	}
	return gog.NewClient(gcfg), nil
}

// newOrchestrator wires the client, manifest store, and logger. The store
// backend is Redis when configured, a cache-directory file store
// otherwise.
func (c *CLI) newOrchestrator(ctx context.Context, cfg config.Config, client *gog.Client) (*depot.Orchestrator, error) {
	backend, err := c.newStoreBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return depot.New(client, depot.NewStore(backend), c.Logger), nil
}

func (c *CLI) newStoreBackend(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.Redis.Addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return cache.NewFileCache(filepath.Join(cfg.CacheDir, "manifests"))
}
