// Package api is the single chokepoint for HTTP calls to the FinStudent REST
// API. Every call returns a *Result; transport failures, error statuses and
// malformed bodies are folded into it instead of surfacing as Go errors.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finstudent/internal/cache"
	"finstudent/internal/log"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderCSRF      = "X-CSRFToken"
	CSRFCookieName  = "csrftoken"

	maxResponseBytes = 10 << 20
)

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) AccessToken(ctx context.Context) string { return f(ctx) }

// Request describes one API call. Path is relative to the base URL and keeps
// DRF's trailing slash, e.g. "/transactions/".
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
	// SkipAuth omits the bearer token, for endpoints that must not see a
	// possibly stale access token (token refresh).
	SkipAuth bool
}

// Options configure a Client.
type Options struct {
	BaseURL string
	// Django keeps cookies between calls and echoes the csrftoken cookie in
	// the X-CSRFToken header on unsafe methods.
	Django  bool
	Timeout time.Duration
	Tokens  TokenSource
	// CacheTTL > 0 enables the GET response cache.
	CacheTTL  time.Duration
	CacheSize int
	// HTTPClient overrides the transport; its Jar is replaced in Django mode.
	HTTPClient *http.Client
	Logger     *log.Logger
}

type Client struct {
	baseURL *url.URL
	django  bool
	http    *http.Client
	tokens  TokenSource
	cache   *cache.LRUCache[cachedResult]
	logger  *log.Logger

	// cacheGen counts invalidations. A GET only stores its response when no
	// write succeeded while it was in flight.
	cacheMu  sync.Mutex
	cacheGen uint64
}

type cachedResult struct {
	data   json.RawMessage
	meta   *Meta
	status int
}

// NewClient validates the base URL and builds a client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		httpClient = &clone
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}
	httpClient.Jar = nil
	if opts.Django {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) string { return "" })
	}

	c := &Client{
		baseURL: base,
		django:  opts.Django,
		http:    httpClient,
		tokens:  tokens,
		logger:  logger.WithComponent(log.ComponentAPI),
	}
	if opts.CacheTTL > 0 {
		size := opts.CacheSize
		if size <= 0 {
			size = 64
		}
		c.cache = cache.NewLRUCache[cachedResult](size, opts.CacheTTL)
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Cache returns the response cache for registration with a cache.Manager,
// or nil when caching is disabled.
func (c *Client) Cache() cache.Cleaner {
	if c.cache == nil {
		return nil
	}
	return c.cache
}

func (c *Client) cacheGeneration() uint64 {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.cacheGen
}

// storeCached caches a GET result unless the cache was invalidated since gen.
func (c *Client) storeCached(key string, gen uint64, r cachedResult) bool {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.cacheGen != gen {
		return false
	}
	c.cache.Set(key, r)
	return true
}

func (c *Client) invalidateCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cacheGen++
	c.cache.Clear()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Do performs req and normalizes the outcome. It never returns nil.
func (c *Client) Do(ctx context.Context, req Request) *Result {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.url(req.Path, req.Query)
	requestID := uuid.NewString()

	token := ""
	if !req.SkipAuth {
		token = c.tokens.AccessToken(ctx)
	}

	logger := c.logger.WithFields(log.NewFields().
		WithRequestID(requestID).
		WithHTTPRequest(method, req.Path, req.Query.Encode()))

	cacheKey := ""
	var cacheGen uint64
	if c.cache != nil && method == http.MethodGet {
		cacheKey = responseCacheKey(target, token)
		cacheGen = c.cacheGeneration()
		if hit, ok := c.cache.Get(cacheKey); ok {
			logger.Debug("API response served from cache", log.FieldCacheHit, true)
			return &Result{Success: true, Data: hit.data, Meta: hit.meta, Status: hit.status}
		}
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			logger.Error("Failed to encode request body", log.FieldError, err)
			return failure(0, fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		logger.Error("Failed to build request", log.FieldError, err)
		return failure(0, fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, requestID)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if c.django && isUnsafe(method) {
		if csrf := c.csrfToken(); csrf != "" {
			httpReq.Header.Set(HeaderCSRF, csrf)
		}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Error("API request failed", log.FieldError, err)
		return failure(0, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Error("Failed to read response body", log.FieldStatusCode, resp.StatusCode, log.FieldError, err)
		return failure(resp.StatusCode, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.StatusCode, raw)
		level := logger.Warn
		if resp.StatusCode >= 500 {
			level = logger.Error
		}
		level("API request rejected",
			log.FieldStatusCode, resp.StatusCode,
			log.FieldDuration, duration,
			log.FieldError, msg)
		return failure(resp.StatusCode, msg)
	}

	result := &Result{Success: true, Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if !json.Valid(raw) {
			logger.Error("API returned malformed JSON", log.FieldStatusCode, resp.StatusCode)
			return failure(resp.StatusCode, "invalid JSON in response")
		}
		data, meta, err := unwrapPage(raw)
		if err != nil {
			logger.Error("API returned unexpected shape", log.FieldStatusCode, resp.StatusCode, log.FieldError, err)
			return failure(resp.StatusCode, err.Error())
		}
		result.Data = data
		result.Meta = meta
	}

	logger.Debug("API request completed",
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, duration)

	switch {
	case cacheKey != "":
		if !c.storeCached(cacheKey, cacheGen, cachedResult{data: result.Data, meta: result.Meta, status: result.Status}) {
			logger.Debug("Discarded response invalidated while in flight")
		}
	case c.cache != nil && method != http.MethodGet:
		// Any successful write can change what list and report endpoints return.
		c.invalidateCache()
	}
	return result
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = c.baseURL.Path + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == CSRFCookieName {
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				return v
			}
			return ck.Value
		}
	}
	return ""
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseCacheKey scopes cached responses to the caller's token without
// keeping the token itself in memory.
func responseCacheKey(target, token string) string {
	sum := sha256.Sum256([]byte(token))
	return target + "#" + hex.EncodeToString(sum[:8])
}
