package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/litescript/alkaid/internal/metrics"
	"github.com/litescript/alkaid/internal/version"
)

const (
	// DefaultBaseURL is the OpenWeatherMap 2.5 API.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second

	metricsClient = "weather"
)

// ErrUnreachable marks failures to reach the API at all.
var ErrUnreachable = errors.New("weather API unreachable")

// StatusError is a non-200 response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather API returned %d", e.Code)
	}
	return fmt.Sprintf("weather API returned %d: %s", e.Code, e.Message)
}

// Client calls the current-weather endpoints.
type Client struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	metrics *metrics.Collector
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
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

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a weather client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CurrentByCoordinates fetches conditions at lat/lon in metric units.
func (c *Client) CurrentByCoordinates(ctx context.Context, lat, lon float64, apiKey string) (*Response, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", apiKey)
	q.Set("units", "metric")
	return c.current(ctx, q)
}

// CurrentByCity fetches conditions for a city name in metric units.
func (c *Client) CurrentByCity(ctx context.Context, city, apiKey string) (*Response, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", apiKey)
	q.Set("units", "metric")
	return c.current(ctx, q)
}

func (c *Client) current(ctx context.Context, q url.Values) (*Response, error) {
	start := time.Now()
	resp, outcome, err := c.do(ctx, q)
	c.metrics.ObserveRequest(metricsClient, outcome, time.Since(start))
	return resp, err
}

func (c *Client) do(ctx context.Context, q url.Values) (*Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The url.Error text would include the API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, metrics.OutcomeTransport, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metrics.OutcomeTransport, fmt.Errorf("%w: read response body: %w", ErrUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Code: resp.StatusCode}
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			se.Message = ae.Message
		}
		return nil, metrics.OutcomeHTTPError, se
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, metrics.OutcomeDecode, fmt.Errorf("decode response: %w", err)
	}
	return &out, metrics.OutcomeOK, nil
}
