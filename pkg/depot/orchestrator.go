package depot

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/depotdl/depotdl/pkg/errors"
	"github.com/depotdl/depotdl/pkg/gog"
	"github.com/depotdl/depotdl/pkg/manifest"
	"github.com/depotdl/depotdl/pkg/observability"
)

// Client is the remote capability the orchestrator needs, satisfied by
// *gog.Client.
type Client interface {
	Builds(ctx context.Context, productID, platform, password string) (*gog.BuildList, error)
	Fetcher
}

// Request describes one prepare/download operation.
type Request struct {
	ProductID string
	Platform  string

	// Password unlocks password-protected branches; usually empty.
	Password string

	Selector Selector

	// Repair resolves the protocol generation from the persisted manifest
	// instead of trusting the remote listing, so verification matches the
	// bytes that were installed.
	Repair bool
}

// DownloadPlan is everything an external executor needs to transfer and
// reconstruct a build. The manifest is immutable; the plan may be shared
// across workers.
type DownloadPlan struct {
	Build       BuildDescriptor
	Manifest    *manifest.Manifest
	RawManifest []byte

	// Links may be empty after secure-link acquisition failed soft; an
	// executor treats that as nothing to download.
	Links []gog.SecureLink
}

// Executor performs the actual byte transfer for a plan. Implementations
// live outside this module.
type Executor interface {
	Execute(ctx context.Context, plan *DownloadPlan) error
}

// Orchestrator wires build resolution, manifest fetch/decode, and
// secure-link acquisition into download plans.
//
// Safe for concurrent use; concurrent Prepare calls for the same
// product+build share one manifest fetch result.
type Orchestrator struct {
	client Client
	store  *Store
	log    *log.Logger

	mu       sync.Mutex
	resolved map[string][]byte
}

// New creates an Orchestrator. store may be nil to disable manifest
// persistence (repair then always trusts the remote generation); logger
// nil selects the default logger.
func New(client Client, store *Store, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		client:   client,
		store:    store,
		log:      logger,
		resolved: make(map[string][]byte),
	}
}

// Prepare resolves the target build, fetches and decodes its manifest, and
// acquires secure links, returning the assembled plan.
//
// Resolution and decode errors surface immediately. An empty link list is
// not an error here (see [gog.Client.SecureLinks]).
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*DownloadPlan, error) {
	observability.Depot().OnResolveStart(ctx, req.ProductID)
	start := time.Now()

	list, err := o.client.Builds(ctx, req.ProductID, req.Platform, req.Password)
	if err != nil {
		observability.Depot().OnResolveComplete(ctx, req.ProductID, "", time.Since(start), err)
		return nil, err
	}

	sel := req.Selector
	if req.Repair && o.store != nil && sel.CachedGeneration == 0 {
		if gen := o.store.CachedGeneration(ctx, req.ProductID); gen != 0 {
			o.log.Debug("repair pinned to stored generation", "product", req.ProductID, "generation", gen)
			sel.CachedGeneration = gen
		}
	}

	build, err := Resolve(FromBuildList(req.ProductID, list), sel)
	observability.Depot().OnResolveComplete(ctx, req.ProductID, build.BuildID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	o.log.Info("build resolved",
		"product", req.ProductID, "build", build.BuildID, "generation", build.Generation)

	proto, err := protocolFor(build.Generation)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	raw, err := o.manifestBytes(ctx, proto, &build)
	observability.Depot().OnManifestFetch(ctx, req.ProductID, build.BuildID, len(raw), time.Since(fetchStart), err)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Decode(raw)
	fileCount, chunkCount := 0, 0
	if m != nil {
		if m.FileManifestList != nil {
			fileCount = len(m.FileManifestList.Elements)
		}
		if m.ChunkDataList != nil {
			chunkCount = len(m.ChunkDataList.Elements)
		}
	}
	observability.Depot().OnManifestDecode(ctx, req.ProductID, fileCount, chunkCount, err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err,
			"manifest for build %s did not decode", build.BuildID)
	}

	if o.store != nil && !req.Repair {
		if err := o.store.Put(ctx, req.ProductID, build.BuildID, build.Generation, raw); err != nil {
			// Persistence is best effort; the plan is already complete.
			o.log.Warn("storing manifest failed", "product", req.ProductID, "err", err)
		}
	}

	return &DownloadPlan{
		Build:       build,
		Manifest:    m,
		RawManifest: raw,
		Links:       proto.secureLinks(ctx, o.client, req.ProductID),
	}, nil
}

// Download prepares a plan and hands it to the executor.
func (o *Orchestrator) Download(ctx context.Context, req Request, exec Executor) error {
	plan, err := o.Prepare(ctx, req)
	if err != nil {
		return err
	}
	return exec.Execute(ctx, plan)
}

// manifestBytes fetches a build's manifest, deduplicating across
// concurrent and repeated calls with compare-and-insert on the
// product+build key: the first stored result wins, later fetches of the
// same key are discarded.
func (o *Orchestrator) manifestBytes(ctx context.Context, proto protocol, b *BuildDescriptor) ([]byte, error) {
	key := b.ProductID + ":" + b.BuildID

	o.mu.Lock()
	if data, ok := o.resolved[key]; ok {
		o.mu.Unlock()
		return data, nil
	}
	o.mu.Unlock()

	data, err := proto.fetchManifest(ctx, o.client, b)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.resolved[key]; ok {
		return existing, nil
	}
	o.resolved[key] = data
	return data, nil
}
