// Package search geocodes free-text place queries against a Nominatim
// endpoint for the map panel.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/litescript/alkaid/internal/metrics"
	"github.com/litescript/alkaid/internal/version"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second

	// DefaultLimit caps the number of places per query.
	DefaultLimit = 5

	metricsClient = "search"
)

// Place is one geocoding match.
type Place struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Type        string  `json:"type,omitempty"`
}

// StatusError is a non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API returned %d", e.Code)
}

// nominatimPlace is the wire shape; coordinates arrive as strings.
type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
}

// Client queries the search endpoint.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	limit     int
	cache     *Cache
	metrics   *metrics.Collector
	group     singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithUserAgent overrides the User-Agent header. Nominatim's usage policy
// requires one that identifies the application.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithCache serves repeated queries from cache.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: version.UserAgent,
		timeout:   DefaultTimeout,
		limit:     DefaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Search returns places matching q. Blank queries return nothing without a
// request. Concurrent identical queries share one request, which runs
// detached from any single caller so that one cancelled caller does not fail
// the others; each caller still returns as soon as its own ctx is done.
func (c *Client) Search(ctx context.Context, q string) ([]Place, error) {
	key := CacheKey(q)
	if key == "" {
		return nil, nil
	}
	if places, ok := c.cache.Get(key); ok {
		return places, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.timeout)
			defer cancel()
		}
		places, err := c.fetch(fctx, strings.TrimSpace(q))
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, places)
		return places, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Place), nil
	}
}

func (c *Client) fetch(ctx context.Context, q string) ([]Place, error) {
	start := time.Now()
	places, outcome, err := c.do(ctx, q)
	c.metrics.ObserveRequest(metricsClient, outcome, time.Since(start))
	return places, err
}

func (c *Client) do(ctx context.Context, q string) ([]Place, string, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("addressdetails", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("search %q: %w", q, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, metrics.OutcomeHTTPError, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("read response body: %w", err)
	}

	var raw []nominatimPlace
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, metrics.OutcomeDecode, fmt.Errorf("decode response: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, metrics.OutcomeDecode, fmt.Errorf("parse lat %q: %w", r.Lat, err)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, metrics.OutcomeDecode, fmt.Errorf("parse lon %q: %w", r.Lon, err)
		}
		places = append(places, Place{DisplayName: r.DisplayName, Lat: lat, Lon: lon, Type: r.Type})
	}
	return places, metrics.OutcomeOK, nil
}
