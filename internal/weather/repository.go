package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Keys is where the repository finds the API key.
type Keys interface {
	WeatherAPIKey() (string, error)
	HasWeatherAPIKey() bool
	SaveWeatherAPIKey(key string) error
	RemoveWeatherAPIKey() error
}

// Kind classifies a Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindNoAPIKey
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNoAPIKey:
		return "no api key"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of a repository lookup.
type Result struct {
	Kind    Kind
	Data    DisplayData
	Message string
}

// Repository joins the client with the stored API key and turns failures
// into user-facing messages.
type Repository struct {
	client *Client
	keys   Keys
}

// NewRepository creates a repository.
func NewRepository(c *Client, keys Keys) *Repository {
	return &Repository{client: c, keys: keys}
}

// HasAPIKey reports whether a key is available.
func (r *Repository) HasAPIKey() bool {
	return r.keys.HasWeatherAPIKey()
}

// SaveAPIKey stores key.
func (r *Repository) SaveAPIKey(key string) error {
	return r.keys.SaveWeatherAPIKey(key)
}

// RemoveAPIKey deletes the stored key.
func (r *Repository) RemoveAPIKey() error {
	return r.keys.RemoveWeatherAPIKey()
}

// ByCoordinates fetches conditions at lat/lon. The location label is the
// coordinate pair rather than the API's city name.
func (r *Repository) ByCoordinates(ctx context.Context, lat, lon float64) Result {
	key, ok := r.apiKey()
	if !ok {
		return Result{Kind: KindNoAPIKey}
	}
	resp, err := r.client.CurrentByCoordinates(ctx, lat, lon, key)
	if err != nil {
		return Result{Kind: KindError, Message: classify(err, "Location not found")}
	}
	return Result{Kind: KindSuccess, Data: NewDisplayData(resp, CoordinateLabel(lat, lon))}
}

// ByCity fetches conditions for a city name.
func (r *Repository) ByCity(ctx context.Context, city string) Result {
	key, ok := r.apiKey()
	if !ok {
		return Result{Kind: KindNoAPIKey}
	}
	resp, err := r.client.CurrentByCity(ctx, strings.TrimSpace(city), key)
	if err != nil {
		return Result{Kind: KindError, Message: classify(err, "City not found")}
	}
	return Result{Kind: KindSuccess, Data: NewDisplayData(resp, "")}
}

// CoordinateLabel formats a coordinate pair for the location line.
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("%.4f°, %.4f°", lat, lon)
}

func (r *Repository) apiKey() (string, bool) {
	key, err := r.keys.WeatherAPIKey()
	if err != nil || strings.TrimSpace(key) == "" {
		return "", false
	}
	return key, true
}

func classify(err error, notFound string) string {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusUnauthorized:
			return "Invalid API key"
		case http.StatusNotFound:
			return notFound
		case http.StatusTooManyRequests:
			return "API rate limit exceeded"
		}
	}
	if errors.Is(err, ErrUnreachable) {
		return "No internet connection"
	}
	return "Failed to get weather data: " + err.Error()
}
