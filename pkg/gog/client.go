package gog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/depotdl/depotdl/pkg/errors"
	"github.com/depotdl/depotdl/pkg/httputil"
	"github.com/depotdl/depotdl/pkg/observability"
)

// Default API hosts.
const (
	DefaultContentSystemURL = "https://content-system.gog.com"
	DefaultAPIURL           = "https://api.gog.com"
	DefaultEmbedURL         = "https://embed.gog.com"
)

const (
	httpTimeout      = 10 * time.Second
	defaultUserAgent = "depotdl/1.0"

	// Secure-link retry schedule: linkRetryBase doubles after each failed
	// attempt, up to defaultLinkRetries attempts.
	defaultLinkRetries   = 3
	defaultLinkRetryBase = 200 * time.Millisecond
)

// TokenSource supplies the bearer token attached to authenticated requests.
// Implementations may refresh expired tokens; the client calls Token before
// every request that needs one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token string.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Config carries the optional knobs for NewClient. The zero value works:
// every field has a default.
type Config struct {
	// Token authenticates requests to endpoints that need it. Nil means
	// unauthenticated; affected calls will fail with UNAUTHORIZED responses
	// from the service.
	Token TokenSource

	// Cache, when non-nil, caches JSON responses for listing endpoints.
	Cache *httputil.Cache

	// Logger defaults to log.Default().
	Logger *log.Logger

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	UserAgent string

	// Endpoint overrides, used by tests.
	ContentSystemURL string
	APIURL           string
	EmbedURL         string

	// Secure-link retry policy. Zero values select the defaults
	// (3 attempts, 200ms base delay).
	LinkRetries   int
	LinkRetryBase time.Duration
}

// Client talks to the GOG content-distribution APIs.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http  *http.Client
	cache *httputil.Cache
	token TokenSource
	log   *log.Logger

	userAgent string

	contentSystemURL string
	apiURL           string
	embedURL         string

	linkRetries   int
	linkRetryBase time.Duration
}

// NewClient builds a Client from cfg, filling in defaults for unset fields.
func NewClient(cfg Config) *Client {
	c := &Client{
		http:             cfg.HTTPClient,
		cache:            cfg.Cache,
		token:            cfg.Token,
		log:              cfg.Logger,
		userAgent:        cfg.UserAgent,
		contentSystemURL: cfg.ContentSystemURL,
		apiURL:           cfg.APIURL,
		embedURL:         cfg.EmbedURL,
		linkRetries:      cfg.LinkRetries,
		linkRetryBase:    cfg.LinkRetryBase,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.contentSystemURL == "" {
		c.contentSystemURL = DefaultContentSystemURL
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.embedURL == "" {
		c.embedURL = DefaultEmbedURL
	}
	if c.linkRetries <= 0 {
		c.linkRetries = defaultLinkRetries
	}
	if c.linkRetryBase <= 0 {
		c.linkRetryBase = defaultLinkRetryBase
	}
	return c
}

// getJSON performs a GET and decodes the JSON response body into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// getBytes performs a GET and returns the raw response body.
func (c *Client) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// cached retrieves key from the response cache or executes fetch with
// retries and stores the result. With no cache configured it always
// fetches.
func (c *Client) cached(ctx context.Context, key string, v any, fetch func() error) error {
	if c.cache != nil {
		if ok, _ := c.cache.Get(key, v); ok {
			observability.Cache().OnCacheHit(ctx, "gog")
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, "gog")
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Set(key, v)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "building request for %s", rawURL)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != nil {
		tok, err := c.token.Token(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnauthorized, err, "acquiring token")
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", req.URL.Path))
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "status %d from %s", code, resp.Request.URL.Path)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "status %d from %s", code, resp.Request.URL.Path)
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status %d from %s", code, resp.Request.URL.Path)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return httputil.Retryable(&errors.RateLimitedError{RetryAfter: retryAfter})
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "status %d from %s", code, resp.Request.URL.Path))
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d from %s", code, resp.Request.URL.Path)
	}
}

func joinQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	return fmt.Sprintf("%s?%s", base, params.Encode())
}
