// Package httputil provides shared HTTP plumbing for the depotdl API client:
// a file-backed response cache with TTL and key namespacing, and a bounded
// retry helper with exponential backoff.
//
// The cache stores JSON-marshaled responses keyed by SHA-256 of the request
// key, so arbitrary URLs and query strings are safe cache keys. Retry only
// re-attempts errors explicitly marked transient with [RetryableError];
// everything else fails fast.
package httputil
