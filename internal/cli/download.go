package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depotdl/depotdl/pkg/depot"
)

// downloadOpts holds the flags shared by download and repair.
type downloadOpts struct {
	platform string
	branch   string
	buildID  string
	password string
	output   string
}

func (o *downloadOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.platform, "platform", "", "build platform: windows, osx, or linux (default from config)")
	cmd.Flags().StringVar(&o.branch, "branch", "", "prefer builds on this branch")
	cmd.Flags().StringVar(&o.buildID, "build", "", "pin an exact build id")
	cmd.Flags().StringVar(&o.password, "password", "", "password for protected branches")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the download plan to this file (default stdout)")
}

// downloadCommand creates the download command.
func (c *CLI) downloadCommand() *cobra.Command {
	opts := downloadOpts{}
	cmd := &cobra.Command{
		Use:   "download <product-id>",
		Short: "Resolve a build and emit its download plan",
		Long: `Resolve which build of a product to download, fetch and validate its
manifest, acquire secure download links, and emit the resulting plan as
JSON for a download executor to act on.

Examples:
  depotdl download 1207658930
  depotdl download 1207658930 --platform linux --branch beta
  depotdl download 1207658930 --build 55136646198862479 -o plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrepare(cmd, args[0], opts, false)
		},
	}
	opts.register(cmd)
	return cmd
}

// repairCommand creates the repair command. Repair re-prepares a plan for
// verification, pinned to the generation of the manifest that was
// originally installed.
func (c *CLI) repairCommand() *cobra.Command {
	opts := downloadOpts{}
	cmd := &cobra.Command{
		Use:   "repair <product-id>",
		Short: "Emit a verification plan pinned to the installed manifest's generation",
		Long: `Prepare a plan for verifying and repairing an existing installation.

The protocol generation is taken from the locally stored manifest rather
than the remote listing, so verification matches the bytes that were
actually installed even if the remote metadata has changed since.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrepare(cmd, args[0], opts, true)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runPrepare(cmd *cobra.Command, productID string, opts downloadOpts, repair bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.platform == "" {
		opts.platform = cfg.Platform
	}

	client, err := c.newClient(cfg)
	if err != nil {
		return err
	}
	orch, err := c.newOrchestrator(ctx, cfg, client)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	plan, err := orch.Prepare(ctx, depot.Request{
		ProductID: productID,
		Platform:  opts.platform,
		Password:  opts.password,
		Selector: depot.Selector{
			BuildID: opts.buildID,
			Branch:  opts.branch,
		},
		Repair: repair,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Prepared build %s", plan.Build.BuildID))

	if len(plan.Links) == 0 {
		logger.Warn("no secure links acquired; the plan is not downloadable right now",
			"product", productID)
	}

	return writePlan(plan, opts.output)
}

// planOutput is the JSON document handed to the download executor.
type planOutput struct {
	ProductID   string  `json:"product_id"`
	BuildID     string  `json:"build_id"`
	Branch      *string `json:"branch"`
	Generation  int     `json:"generation"`
	VersionName string  `json:"version_name,omitempty"`

	ManifestVersion uint32 `json:"manifest_version"`
	Files           int    `json:"files"`
	Chunks          int    `json:"chunks"`
	DownloadSize    int64  `json:"download_size"`
	InstalledSize   int64  `json:"installed_size"`

	Links []planLink `json:"links"`
}

type planLink struct {
	Endpoint string `json:"endpoint"`
	Priority int    `json:"priority"`
	URL      string `json:"url"`
}

func writePlan(plan *depot.DownloadPlan, path string) error {
	out := planOutput{
		ProductID:       plan.Build.ProductID,
		BuildID:         plan.Build.BuildID,
		Branch:          plan.Build.Branch,
		Generation:      plan.Build.Generation,
		VersionName:     plan.Build.VersionName,
		ManifestVersion: plan.Manifest.Version,
		DownloadSize:    plan.Manifest.DownloadSize(),
		InstalledSize:   plan.Manifest.InstalledSize(),
	}
	if plan.Manifest.FileManifestList != nil {
		out.Files = len(plan.Manifest.FileManifestList.Elements)
	}
	if plan.Manifest.ChunkDataList != nil {
		out.Chunks = len(plan.Manifest.ChunkDataList.Elements)
	}
	for _, l := range plan.Links {
		out.Links = append(out.Links, planLink{Endpoint: l.EndpointName, Priority: l.Priority, URL: l.URL})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
