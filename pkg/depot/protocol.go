package depot

import (
	"context"

	"github.com/depotdl/depotdl/pkg/errors"
	"github.com/depotdl/depotdl/pkg/gog"
)

// Fetcher is the transport capability the protocol variants need. It is
// satisfied by *gog.Client; tests substitute fakes.
type Fetcher interface {
	ManifestBytes(ctx context.Context, url string) ([]byte, error)
	SecureLinks(ctx context.Context, productID, path string, generation int, root string) []gog.SecureLink
}

// protocol is the per-generation variant of the content-system request
// shapes. It is resolved exactly once, from the build picked by Resolve,
// and every generation-specific decision lives behind it.
type protocol interface {
	generation() int
	fetchManifest(ctx context.Context, f Fetcher, b *BuildDescriptor) ([]byte, error)
	secureLinks(ctx context.Context, f Fetcher, productID string) []gog.SecureLink
}

// protocolFor maps a generation to its variant. The switch is the single
// place new generations get added.
func protocolFor(generation int) (protocol, error) {
	switch generation {
	case 1:
		return generationOne{}, nil
	case 2:
		return generationTwo{}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedGeneration, "generation %d", generation)
	}
}

// generationOne serves legacy depots: JSON manifests, depot-typed secure
// links.
type generationOne struct{}

func (generationOne) generation() int { return 1 }

func (generationOne) fetchManifest(ctx context.Context, f Fetcher, b *BuildDescriptor) ([]byte, error) {
	if b.ManifestURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "build %s carries no manifest link", b.BuildID)
	}
	return f.ManifestBytes(ctx, b.ManifestURL)
}

func (generationOne) secureLinks(ctx context.Context, f Fetcher, productID string) []gog.SecureLink {
	return f.SecureLinks(ctx, productID, "/", 1, "")
}

// generationTwo serves current depots: binary manifests, generation-tagged
// secure links.
type generationTwo struct{}

func (generationTwo) generation() int { return 2 }

func (generationTwo) fetchManifest(ctx context.Context, f Fetcher, b *BuildDescriptor) ([]byte, error) {
	if b.ManifestURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "build %s carries no manifest link", b.BuildID)
	}
	return f.ManifestBytes(ctx, b.ManifestURL)
}

func (generationTwo) secureLinks(ctx context.Context, f Fetcher, productID string) []gog.SecureLink {
	return f.SecureLinks(ctx, productID, "/", 2, "")
}
