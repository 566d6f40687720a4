package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depotdl/depotdl/pkg/depot"
)

// infoCommand creates the info command: build listing plus size totals for
// the build that would be resolved.
func (c *CLI) infoCommand() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "info <product-id>",
		Short: "Show available builds and download sizes for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			productID := args[0]

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if platform == "" {
				platform = cfg.Platform
			}

			client, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			list, err := client.Builds(ctx, productID, platform, "")
			if err != nil {
				return err
			}

			fmt.Printf("Product %s (%s): %d build(s)\n", productID, platform, len(list.Items))
			for _, b := range list.Items {
				branch := "default"
				if b.Branch != nil {
					branch = *b.Branch
				}
				fmt.Printf("  %-20s branch=%-10s generation=%d version=%s\n",
					b.BuildID, branch, b.Generation, b.VersionName)
			}

			orch, err := c.newOrchestrator(ctx, cfg, client)
			if err != nil {
				return err
			}
			plan, err := orch.Prepare(ctx, depot.Request{ProductID: productID, Platform: platform})
			if err != nil {
				return err
			}

			fmt.Printf("\nResolved build: %s (generation %d)\n", plan.Build.BuildID, plan.Build.Generation)
			fmt.Printf("  Download size:  %s\n", formatBytes(plan.Manifest.DownloadSize()))
			fmt.Printf("  Installed size: %s\n", formatBytes(plan.Manifest.InstalledSize()))
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "build platform: windows, osx, or linux (default from config)")
	return cmd
}

// formatBytes renders a byte count in a human-readable unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
