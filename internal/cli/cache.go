package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached responses and stored manifests",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var keepManifests bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached responses (and optionally stored manifests)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			dirs := []string{filepath.Join(cfg.CacheDir, "http")}
			if !keepManifests {
				dirs = append(dirs, filepath.Join(cfg.CacheDir, "manifests"))
			}

			count := 0
			for _, dir := range dirs {
				n, err := removeFiles(dir)
				if err != nil {
					return err
				}
				count += n
			}

			fmt.Printf("Cleared %d cached entries\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepManifests, "keep-manifests", false, "keep the persisted manifest store (repair needs it)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Println(cfg.CacheDir)
			return nil
		},
	}
}

// removeFiles deletes all regular files under dir, returning how many were
// removed. A missing dir counts as empty.
func removeFiles(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir || info.IsDir() {
			return nil
		}
		if err := os.Remove(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	// Drop now-empty subdirectories; failures are harmless.
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if info.IsDir() {
			os.Remove(path)
		}
		return nil
	})
	return count, nil
}
