package gog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/depotdl/depotdl/pkg/observability"
)

// SecureLink is one time-limited download endpoint granted by the content
// system. Links expire server-side; callers should acquire them shortly
// before use and never persist them.
type SecureLink struct {
	EndpointName string
	Priority     int

	// URL is fully expanded and ready to fetch from.
	URL string
}

type secureLinkResponse struct {
	URLs []secureLinkEntry `json:"urls"`
}

type secureLinkEntry struct {
	EndpointName string         `json:"endpoint_name"`
	Priority     int            `json:"priority"`
	URL          string         `json:"url"`
	URLFormat    string         `json:"url_format"`
	Parameters   map[string]any `json:"parameters"`
}

// SecureLinks acquires time-limited download URLs for a product's content
// at path. The generation (1 or 2) selects the request shape; root is an
// optional storage root and usually empty.
//
// This is a fail-soft boundary: each failed attempt backs off (the delay
// doubles each time), and when all attempts fail the error is logged at
// error severity and an empty slice is returned. Callers already treat an
// empty result as "nothing to download"; a per-product link failure must
// not abort a batch operation, so the return type carries no error.
func (c *Client) SecureLinks(ctx context.Context, productID, path string, generation int, root string) []SecureLink {
	endpoint, err := c.secureLinkURL(productID, path, generation, root)
	if err != nil {
		c.log.Error("secure link request not buildable",
			"product", productID, "generation", generation, "err", err)
		return nil
	}

	start := time.Now()
	delay := c.linkRetryBase

	var lastErr error
	for attempt := 0; attempt < c.linkRetries; attempt++ {
		var resp secureLinkResponse
		if lastErr = c.getJSON(ctx, endpoint, &resp); lastErr == nil {
			links := expandSecureLinks(resp.URLs)
			observability.Depot().OnSecureLinks(ctx, productID, len(links), attempt+1, time.Since(start))
			return links
		}

		// Backs off after every failed attempt, the last one included.
		select {
		case <-ctx.Done():
			c.log.Error("secure link acquisition cancelled",
				"product", productID, "generation", generation, "err", ctx.Err())
			return nil
		case <-time.After(delay):
			delay *= 2
		}
	}

	c.log.Error("secure link acquisition failed, continuing without links",
		"product", productID, "generation", generation, "attempts", c.linkRetries, "err", lastErr)
	observability.Depot().OnSecureLinks(ctx, productID, 0, c.linkRetries, time.Since(start))
	return nil
}

// secureLinkURL builds the per-generation request URL. Generation 1 asks
// for a depot-typed link, generation 2 passes the generation explicitly.
func (c *Client) secureLinkURL(productID, path string, generation int, root string) (string, error) {
	if productID == "" {
		return "", fmt.Errorf("product id is empty")
	}

	params := url.Values{"_version": {"2"}}
	switch generation {
	case 1:
		params.Set("type", "depot")
		params.Set("path", path)
	case 2:
		params.Set("generation", "2")
		params.Set("path", path)
	default:
		return "", fmt.Errorf("generation %d not supported", generation)
	}
	if root != "" {
		params.Set("root", root)
	}

	return joinQuery(fmt.Sprintf("%s/products/%s/secure_link", c.contentSystemURL, productID), params), nil
}

// expandSecureLinks turns raw response entries into ready-to-use URLs.
// Entries may carry either a literal url or a url_format with a parameter
// map whose values substitute {name} placeholders. Entries yielding no URL
// are dropped; partial URLs are never returned.
func expandSecureLinks(entries []secureLinkEntry) []SecureLink {
	var links []SecureLink
	for _, e := range entries {
		u := e.URL
		if e.URLFormat != "" {
			u = e.URLFormat
			for k, v := range e.Parameters {
				u = strings.ReplaceAll(u, "{"+k+"}", paramString(v))
			}
		}
		if u == "" || strings.Contains(u, "{") {
			continue
		}
		links = append(links, SecureLink{
			EndpointName: e.EndpointName,
			Priority:     e.Priority,
			URL:          u,
		})
	}
	return links
}

// paramString renders a parameter value the way the service expects:
// integral numbers without a decimal point.
func paramString(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
