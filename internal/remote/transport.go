package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

const (
	DefaultManagementBaseURL = "https://api.contentful.com"
	DefaultDeliveryBaseURL   = "https://cdn.contentful.com"
	DefaultEnvironment       = "master"
	DefaultListLimit         = 1000
	DefaultTimeout           = 10 * time.Second

	contentTypeJSON       = "application/vnd.contentful.management.v1+json"
	maxResponseBytes      = 16 << 20
	headerVersion         = "X-Contentful-Version"
	headerContentType     = "X-Contentful-Content-Type"
	headerMarketplace     = "X-Contentful-Marketplace"
	marketplaceAgreements = "i-accept-end-user-license-agreement,i-accept-marketplace-terms-of-service,i-accept-privacy-policy"
)

// Variant names the access path a client uses.
type Variant string

const (
	// VariantLocal reads through the management API of the current space.
	VariantLocal Variant = "local"
	// VariantExternal reads through the delivery API of another space.
	VariantExternal Variant = "external"
	// VariantAccount performs organization level management calls.
	VariantAccount Variant = "account"
)

type options struct {
	baseURL     string
	environment string
	httpClient  *http.Client
	logger      interfaces.Logger
	cache       interfaces.ResponseCache
	cacheTTL    time.Duration
	userAgent   string
}

// Option customises a client.
type Option func(*options)

// WithBaseURL overrides the API origin.
func WithBaseURL(base string) Option {
	return func(o *options) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			o.baseURL = trimmed
		}
	}
}

// WithEnvironment selects the space environment. Defaults to "master".
func WithEnvironment(env string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(env); trimmed != "" {
			o.environment = trimmed
		}
	}
}

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger injects the logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCache enables response caching for GET requests.
func WithCache(cache interfaces.ResponseCache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		o.cacheTTL = ttl
	}
}

// WithoutCache drops any response cache set by earlier options.
func WithoutCache() Option {
	return func(o *options) {
		o.cache = nil
		o.cacheTTL = 0
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(o *options) {
		o.userAgent = agent
	}
}

func resolveOptions(defaultBase string, opts []Option) options {
	cfg := options{
		baseURL:     defaultBase,
		environment: DefaultEnvironment,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logging.NoOp(),
		userAgent:   "go-jumpgate",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

type transport struct {
	variant   Variant
	baseURL   string
	token     string
	tokenTag  string
	http      *http.Client
	logger    interfaces.Logger
	cache     interfaces.ResponseCache
	cacheTTL  time.Duration
	userAgent string
}

func newTransport(variant Variant, token string, cfg options) transport {
	sum := sha256.Sum256([]byte(token))
	return transport{
		variant:   variant,
		baseURL:   cfg.baseURL,
		token:     token,
		tokenTag:  hex.EncodeToString(sum[:6]),
		http:      cfg.httpClient,
		logger:    cfg.logger,
		cache:     cfg.cache,
		cacheTTL:  cfg.cacheTTL,
		userAgent: cfg.userAgent,
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	noCache bool
}

func (t *transport) get(ctx context.Context, path string, query url.Values, out any) error {
	return t.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (t *transport) cacheKey(req request) string {
	key := "remote:" + string(t.variant) + ":" + t.tokenTag + ":" + t.baseURL + req.path
	if len(req.query) > 0 {
		key += "?" + req.query.Encode()
	}
	return key
}

func (t *transport) do(ctx context.Context, req request, out any) error {
	cacheable := req.method == http.MethodGet && t.cache != nil && !req.noCache
	key := ""
	if cacheable {
		key = t.cacheKey(req)
		if cached, err := t.cache.Get(ctx, key); err == nil {
			if out == nil || json.Unmarshal(cached, out) == nil {
				t.logger.Trace("remote.cache.hit", "path", req.path)
				return nil
			}
		} else if !errors.Is(err, interfaces.ErrCacheMiss) {
			t.logger.Warn("remote.cache.get_failed", "path", req.path, "error", err)
		}
	}

	body, err := t.roundTrip(ctx, req)
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("remote: decode %s %s: %w", req.method, req.path, err)
		}
	}

	if cacheable {
		if err := t.cache.Set(ctx, key, body, t.cacheTTL); err != nil {
			t.logger.Warn("remote.cache.set_failed", "path", req.path, "error", err)
		}
	}
	return nil
}

func (t *transport) roundTrip(ctx context.Context, req request) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target := t.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode %s %s: %w", req.method, req.path, err)
		}
		payload = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.token)
	httpReq.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	started := time.Now()
	resp, err := t.http.Do(httpReq)
	if err != nil {
		t.logger.Debug("remote.request.failed", "method", req.method, "path", req.path, "error", err)
		return nil, fmt.Errorf("remote: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("remote: read %s %s: %w", req.method, req.path, err)
	}

	t.logger.Debug("remote.request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var envelope struct {
		Sys struct {
			ID string `json:"id"`
		} `json:"sys"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	}
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Sys.ID
		apiErr.Message = envelope.Message
		apiErr.RequestID = envelope.RequestID
	}
	return apiErr
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
