package tgvmax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/trips"
)

const (
	DefaultBaseURL   = "http://127.0.0.1:8000"
	DefaultTimeout   = 30 * time.Second
	DefaultCacheTTL  = time.Hour
	DefaultCacheSize = 256
	DefaultRetries   = 2
	DefaultRetryWait = time.Second

	userAgent = "maxfinder/1.0"
)

// Client is a TGV Max search service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      gcache.Cache
	retries    uint64
	retryWait  time.Duration
	logger     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. A client passed to
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithCache caches response bodies by URL for ttl. A zero ttl disables it.
func WithCache(ttl time.Duration, size int) Option {
	return func(c *Client) {
		if ttl <= 0 || size <= 0 {
			c.cache = nil
			return
		}
		c.cache = gcache.New(size).LRU().Expiration(ttl).Build()
	}
}

// WithRetries sets how often 502/503/504 responses are retried, waiting wait
// before the first retry.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retries = uint64(n)
		c.retryWait = wait
	}
}

// NewClient creates a new client for the service at baseURL.
func NewClient(baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retries:    DefaultRetries,
		retryWait:  DefaultRetryWait,
		logger:     logger,
	}
	WithCache(DefaultCacheTTL, DefaultCacheSize)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs req and returns the normalized payload.
func (c *Client) Search(ctx context.Context, req Request) (trips.Input, error) {
	if err := req.Validate(); err != nil {
		return trips.Input{}, err
	}

	url := c.baseURL + req.Path() + "?" + req.Query().Encode()

	body, cached := c.cached(url)
	if !cached {
		var err error
		if body, err = c.fetch(ctx, url); err != nil {
			return trips.Input{}, err
		}
	}

	in, err := Decode(req.Mode, body)
	if err != nil {
		return trips.Input{}, err
	}

	// Only well-formed bodies are cached.
	if !cached && c.cache != nil {
		if err := c.cache.Set(url, body); err != nil {
			c.logger.WithField("error", err).Debug("caching search response failed")
		}
	}

	in.DestinationFixed = req.DestinationFixed()
	return in, nil
}

func (c *Client) cached(url string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, err := c.cache.Get(url)
	if err != nil {
		return nil, false
	}
	c.logger.WithField("url", url).Debug("serving search from cache")
	return v.([]byte), true
}

// fetch GETs url, retrying transient upstream statuses.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	requestID := uuid.NewString()
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		b, err := c.get(ctx, url, requestID)
		if err == nil {
			body = b
			return nil
		}

		var svcErr *ServiceError
		if errors.As(err, &svcErr) && isTransient(svcErr.StatusCode) {
			c.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"attempt":    attempt,
				"status":     svcErr.StatusCode,
			}).Warn("transient upstream status, retrying")
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !isTyped(err) {
			return nil, &TransportError{Err: ctxErr}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url, requestID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"url":        url,
	}).Debug("querying search service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response body: %w", err)}
	}
	return body, nil
}

func isTransient(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func isTyped(err error) bool {
	var (
		transportErr *TransportError
		serviceErr   *ServiceError
	)
	return errors.As(err, &transportErr) || errors.As(err, &serviceErr)
}
