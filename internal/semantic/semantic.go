// Package semantic consumes the external semantic-analysis collaborator.
//
// The collaborator is an opaque annotator: it classifies a document and
// returns context hints that are merged into the evaluation context before
// gates run. It is allowed to fail: a failure or timeout degrades the
// request to pattern-only mode, it never fails the request itself.
package semantic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Entity is one entity the collaborator recognized in the text.
type Entity struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// Annotation is the collaborator's answer for one document.
type Annotation struct {
	Classification string            `json:"classification"`
	Entities       []Entity          `json:"entities,omitempty"`
	ContextHints   map[string]string `json:"context_hints,omitempty"`
}

// Annotator produces annotations for documents.
type Annotator interface {
	Analyze(ctx context.Context, text, docType string) (*Annotation, error)
}

// Nop is an annotator that annotates nothing, for deployments without a
// collaborator and for tests.
type Nop struct{}

// Analyze returns an empty annotation.
func (Nop) Analyze(ctx context.Context, text, docType string) (*Annotation, error) {
	return &Annotation{}, nil
}

// Config configures the HTTP client for the collaborator.
type Config struct {
	// BaseURL is the collaborator endpoint, e.g. "http://semantic:8080".
	BaseURL string

	// Timeout bounds one analyze call (default: 3s). It must fit inside
	// the orchestrator's per-gate budget.
	Timeout time.Duration

	// RequestsPerSecond throttles calls to the collaborator (default: 20).
	RequestsPerSecond float64

	// CacheTTL bounds how long an annotation is reused (default: 5m).
	CacheTTL time.Duration

	// CacheMaxEntries bounds the annotation cache (default: 256).
	CacheMaxEntries int
}

// Client is an HTTP Annotator with rate limiting and a bounded TTL cache.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *cache
	logger  *zap.Logger
}

// NewClient creates a collaborator client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("semantic: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("semantic: invalid base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 256
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
		cache:   newCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		logger:  logger,
	}, nil
}

// analyzeRequest is the wire request to the collaborator.
type analyzeRequest struct {
	Text         string `json:"text"`
	DocumentType string `json:"document_type"`
}

// Analyze returns the collaborator's annotation for the text, from cache
// when a fresh entry exists.
func (c *Client) Analyze(ctx context.Context, text, docType string) (*Annotation, error) {
	key := cacheKey(text, docType)
	if ann, ok := c.cache.get(key); ok {
		return ann, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("semantic: rate limit wait: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{Text: text, DocumentType: docType})
	if err != nil {
		return nil, fmt.Errorf("semantic: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("semantic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic: collaborator unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic: collaborator returned status %d", resp.StatusCode)
	}

	var ann Annotation
	if err := json.NewDecoder(resp.Body).Decode(&ann); err != nil {
		return nil, fmt.Errorf("semantic: decode response: %w", err)
	}

	c.cache.set(key, &ann)
	return &ann, nil
}

// cacheKey hashes the document text so the cache never holds raw content
// as a map key.
func cacheKey(text, docType string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + ":" + docType
}

var _ Annotator = (*Client)(nil)
var _ Annotator = Nop{}
