package depot

import (
	"github.com/depotdl/depotdl/pkg/errors"
	"github.com/depotdl/depotdl/pkg/gog"
)

// BuildDescriptor identifies one downloadable build of a product.
type BuildDescriptor struct {
	ProductID string
	BuildID   string

	// Branch is nil for the default/mainline branch.
	Branch *string

	// Generation is the content-system protocol family, 1 or 2.
	Generation int

	VersionName string

	// ManifestURL points at the build's manifest payload.
	ManifestURL string
}

// Selector carries the caller's build preferences. The zero value selects
// the default branch of the newest build.
type Selector struct {
	// BuildID, when set, wins unconditionally over every other rule.
	BuildID string

	// Branch, when set, prefers the first build on that branch.
	Branch string

	// CachedGeneration, when nonzero, overrides the resolved build's
	// generation. Repair flows set it from the persisted manifest so
	// verification stays consistent with the bytes on disk even if the
	// remote listing has changed since install.
	CachedGeneration int
}

// Resolve picks exactly one build from builds according to sel.
//
// Precedence, weakest rule first; each later rule overrides the earlier
// ones when it matches:
//
//  1. the first element of builds
//  2. the first build on the default (nil) branch
//  3. the first build whose branch equals sel.Branch
//  4. the build whose id equals sel.BuildID, unconditionally
//
// A nonzero sel.CachedGeneration then replaces the picked build's
// generation. Resolution is a pure function of its inputs; it issues no
// requests and retrying it cannot change the outcome.
func Resolve(builds []BuildDescriptor, sel Selector) (BuildDescriptor, error) {
	if len(builds) == 0 {
		return BuildDescriptor{}, errors.New(errors.ErrCodeNoBuilds, "build list is empty")
	}

	pick := builds[0]

	for _, b := range builds {
		if b.Branch == nil {
			pick = b
			break
		}
	}

	if sel.Branch != "" {
		for _, b := range builds {
			if b.Branch != nil && *b.Branch == sel.Branch {
				pick = b
				break
			}
		}
	}

	if sel.BuildID != "" {
		for _, b := range builds {
			if b.BuildID == sel.BuildID {
				pick = b
				break
			}
		}
	}

	if sel.CachedGeneration != 0 {
		pick.Generation = sel.CachedGeneration
	}

	if pick.Generation != 1 && pick.Generation != 2 {
		return BuildDescriptor{}, errors.New(errors.ErrCodeUnsupportedGeneration,
			"build %s reports generation %d, want 1 or 2", pick.BuildID, pick.Generation)
	}
	return pick, nil
}

// FromBuildList converts a remote build listing into descriptors.
func FromBuildList(productID string, list *gog.BuildList) []BuildDescriptor {
	out := make([]BuildDescriptor, 0, len(list.Items))
	for _, item := range list.Items {
		id := item.ProductID
		if id == "" {
			id = productID
		}
		out = append(out, BuildDescriptor{
			ProductID:   id,
			BuildID:     item.BuildID,
			Branch:      item.Branch,
			Generation:  item.Generation,
			VersionName: item.VersionName,
			ManifestURL: item.Link,
		})
	}
	return out
}
