package gog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/depotdl/depotdl/pkg/errors"
	"github.com/depotdl/depotdl/pkg/httputil"
)

// Platforms the content system serves builds for.
var supportedPlatforms = map[string]bool{
	"windows": true,
	"osx":     true,
	"linux":   true,
}

// Build is one entry of a product's build listing.
type Build struct {
	BuildID   string `json:"build_id"`
	ProductID string `json:"product_id"`
	OS        string `json:"os"`

	// Branch is nil for the default/mainline branch.
	Branch *string `json:"branch"`

	VersionName string   `json:"version_name"`
	Tags        []string `json:"tags"`
	Public      bool     `json:"public"`
	Generation  int      `json:"generation"`

	// Link points at the build's manifest (generation 2 listings).
	Link string `json:"link"`
}

// BuildList is the decoded build-listing response.
type BuildList struct {
	TotalCount int     `json:"total_count"`
	Count      int     `json:"count"`
	Items      []Build `json:"items"`
}

// Builds fetches the build listing for a product on a platform. The
// password parameter unlocks password-protected beta branches and is
// usually empty.
//
// Responses are cached when the client has a cache configured; an empty
// item list is a valid response here, rejecting it is the resolver's call.
func (c *Client) Builds(ctx context.Context, productID, platform, password string) (*BuildList, error) {
	if productID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "product id is empty")
	}
	if !supportedPlatforms[platform] {
		return nil, errors.New(errors.ErrCodeInvalidPlatform, "platform %q (want windows, osx, or linux)", platform)
	}

	params := url.Values{"generation": {"2"}}
	if password != "" {
		params.Set("password", password)
	}
	endpoint := joinQuery(
		fmt.Sprintf("%s/products/%s/os/%s/builds", c.contentSystemURL, productID, platform),
		params,
	)

	var list BuildList
	key := fmt.Sprintf("builds:%s:%s:%s", productID, platform, password)
	err := c.cached(ctx, key, &list, func() error {
		return c.getJSON(ctx, endpoint, &list)
	})
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeProductNotFound, err, "product %s has no %s builds", productID, platform)
		}
		return nil, err
	}
	return &list, nil
}

// ManifestBytes fetches a manifest payload from rawURL with retries. The
// bytes are returned undecoded; pkg/manifest owns the wire formats.
func (c *Client) ManifestBytes(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() (err error) {
		data, err = c.getBytes(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
