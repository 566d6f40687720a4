package depot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/depotdl/depotdl/pkg/cache"
	"github.com/depotdl/depotdl/pkg/observability"
)

// Store persists the last accepted manifest per product. Besides serving
// as a local copy for verify flows, it records which protocol generation
// the manifest came from; repair reads that back as the resolver's
// generation override.
type Store struct {
	backend cache.Cache
}

// storeEntry is the persisted envelope. Data carries the raw wire bytes,
// untouched, so the stored manifest re-decodes exactly like the remote
// one did.
type storeEntry struct {
	Generation int    `json:"generation"`
	BuildID    string `json:"build_id"`
	Data       []byte `json:"data"`
}

// NewStore wraps a cache backend as a manifest store. Entries never
// expire; a manifest stays valid until replaced by the next accepted one.
func NewStore(backend cache.Cache) *Store {
	return &Store{backend: backend}
}

func storeKey(productID string) string {
	return fmt.Sprintf("manifest:%s", productID)
}

// Put records manifest bytes as the last accepted manifest for a product.
func (s *Store) Put(ctx context.Context, productID, buildID string, generation int, data []byte) error {
	entry, err := json.Marshal(storeEntry{
		Generation: generation,
		BuildID:    buildID,
		Data:       data,
	})
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, storeKey(productID), entry, 0); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "manifest", len(data))
	return nil
}

// Get returns the stored manifest bytes and the generation they were
// fetched under. ok is false when no manifest is stored for the product.
func (s *Store) Get(ctx context.Context, productID string) (data []byte, generation int, ok bool, err error) {
	raw, ok, err := s.backend.Get(ctx, storeKey(productID))
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "manifest")
		return nil, 0, false, err
	}
	var entry storeEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, 0, false, err
	}
	observability.Cache().OnCacheHit(ctx, "manifest")
	return entry.Data, entry.Generation, true, nil
}

// CachedGeneration returns the generation recorded with the product's
// stored manifest, or 0 when none is stored. Errors degrade to 0: repair
// falls back to the remote-reported generation rather than failing.
func (s *Store) CachedGeneration(ctx context.Context, productID string) int {
	_, generation, ok, err := s.Get(ctx, productID)
	if err != nil || !ok {
		return 0
	}
	return generation
}

// Delete drops the stored manifest for a product.
func (s *Store) Delete(ctx context.Context, productID string) error {
	return s.backend.Delete(ctx, storeKey(productID))
}
