// Package gog is the authenticated client for the GOG content-distribution
// APIs: build listings, manifest payloads, time-limited secure download
// links, and account data.
//
// The client owns transport concerns only. Decoding manifest payloads is
// pkg/manifest's job; picking which build to download is pkg/depot's.
//
// # Endpoints
//
// Three hosts are involved:
//   - content-system.gog.com: build listings, manifests, secure links
//   - api.gog.com: product metadata
//   - embed.gog.com: account data and the owned-games list
//
// All base URLs are configurable, which the tests use to point the client
// at local httptest servers.
//
// # Failure policy
//
// Most calls surface errors to the caller. Two deliberately do not:
//
// [Client.SecureLinks] retries a bounded number of times and then degrades
// to an empty result, logging at error severity. Batch callers treat an
// empty link list as "nothing to download" rather than aborting the whole
// run over one product.
//
// [Client.OwnsProduct] fails open: when ownership cannot be determined it
// reports the product as owned. The server is the actual authority; a
// client-side check that fails closed would only lock users out during
// API hiccups.
package gog
