package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/depotdl/depotdl/pkg/depot"
	"github.com/depotdl/depotdl/pkg/gog"
	"github.com/depotdl/depotdl/pkg/manifest"
)

func TestWritePlan(t *testing.T) {
	branch := "beta"
	plan := &depot.DownloadPlan{
		Build: depot.BuildDescriptor{
			ProductID:   "1207",
			BuildID:     "build-7",
			Branch:      &branch,
			Generation:  2,
			VersionName: "1.2.3",
		},
		Manifest: &manifest.Manifest{
			Version: 21,
			ChunkDataList: &manifest.ChunkDataList{
				Count: 1,
				Elements: []manifest.ChunkInfo{
					{WindowSize: 64, FileSize: 40},
				},
			},
			FileManifestList: &manifest.FileManifestList{
				Count: 1,
				Elements: []manifest.FileManifest{
					{Filename: "bin/orion", FileSize: 64},
				},
			},
		},
		Links: []gog.SecureLink{
			{EndpointName: "fastly", Priority: 10, URL: "https://cdn.example.com/a"},
		},
	}

	path := filepath.Join(t.TempDir(), "plan.json")
	if err := writePlan(plan, path); err != nil {
		t.Fatalf("writePlan() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out planOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("plan is not valid JSON: %v", err)
	}

	if out.ProductID != "1207" || out.BuildID != "build-7" {
		t.Errorf("plan identifies %s/%s, want 1207/build-7", out.ProductID, out.BuildID)
	}
	if out.Branch == nil || *out.Branch != "beta" {
		t.Errorf("plan branch = %v, want beta", out.Branch)
	}
	if out.Generation != 2 || out.ManifestVersion != 21 {
		t.Errorf("generation/version = %d/%d, want 2/21", out.Generation, out.ManifestVersion)
	}
	if out.Files != 1 || out.Chunks != 1 {
		t.Errorf("files/chunks = %d/%d, want 1/1", out.Files, out.Chunks)
	}
	if out.DownloadSize != 40 || out.InstalledSize != 64 {
		t.Errorf("sizes = %d/%d, want 40/64", out.DownloadSize, out.InstalledSize)
	}
	if len(out.Links) != 1 || out.Links[0].Endpoint != "fastly" {
		t.Errorf("links = %+v, want one fastly entry", out.Links)
	}
}

func TestWritePlanEmptySections(t *testing.T) {
	plan := &depot.DownloadPlan{
		Build:    depot.BuildDescriptor{ProductID: "1207", BuildID: "b", Generation: 1},
		Manifest: &manifest.Manifest{Version: 21},
	}

	path := filepath.Join(t.TempDir(), "plan.json")
	if err := writePlan(plan, path); err != nil {
		t.Fatalf("writePlan() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out planOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Files != 0 || out.Chunks != 0 || out.DownloadSize != 0 {
		t.Errorf("empty manifest should report zero counts, got %+v", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
