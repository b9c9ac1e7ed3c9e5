package prefs

import (
	"fmt"
	"strconv"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/metrics"
)

// MapNamespace holds the map panel settings.
const MapNamespace = "map_preferences"

const (
	keyProvider    = "provider"
	keyDefaultZoom = "default_zoom"
)

// DefaultZoom is used until the user picks another zoom level.
const DefaultZoom = 15.0

// Zoom bounds accepted by SetDefaultZoom.
const (
	MinZoom = 1.0
	MaxZoom = 21.0
)

// Provider is a map tile source.
type Provider string

const (
	ProviderGoogle Provider = "GOOGLE"
	ProviderOSM    Provider = "OSM"
)

// DisplayName is the label shown in the map panel.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Maps"
	case ProviderOSM:
		return "OpenStreetMap"
	default:
		return string(p)
	}
}

// TileURL is the slippy-map template with {z}, {x} and {y} placeholders.
func (p Provider) TileURL() string {
	switch p {
	case ProviderGoogle:
		return "https://mt1.google.com/vt/lyrs=m&x={x}&y={y}&z={z}"
	default:
		return "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	}
}

// ParseProvider maps a stored name to a provider; anything unrecognised is
// OSM.
func ParseProvider(name string) Provider {
	switch Provider(name) {
	case ProviderGoogle:
		return ProviderGoogle
	default:
		return ProviderOSM
	}
}

// Map stores the map provider and default zoom.
type Map struct {
	store   Store
	log     *logging.Logger
	metrics *metrics.Collector
}

// NewMap wraps store. log and m may be nil.
func NewMap(store Store, log *logging.Logger, m *metrics.Collector) *Map {
	if log == nil {
		log = logging.Discard()
	}
	return &Map{store: store, log: log.With("component", "mapprefs"), metrics: m}
}

// Provider returns the stored provider, OSM by default.
func (m *Map) Provider() Provider {
	raw, ok, err := m.store.Get(MapNamespace, keyProvider)
	if err != nil {
		m.log.Warn("read provider: %v", err)
		return ProviderOSM
	}
	if !ok {
		return ProviderOSM
	}
	return ParseProvider(raw)
}

// SetProvider persists p.
func (m *Map) SetProvider(p Provider) error {
	if err := m.store.Put(MapNamespace, keyProvider, string(ParseProvider(string(p)))); err != nil {
		return fmt.Errorf("set provider: %w", err)
	}
	m.metrics.PrefWrite()
	return nil
}

// ToggleProvider switches between Google and OSM and returns the new one.
func (m *Map) ToggleProvider() (Provider, error) {
	next := ProviderGoogle
	if m.Provider() == ProviderGoogle {
		next = ProviderOSM
	}
	if err := m.SetProvider(next); err != nil {
		return m.Provider(), err
	}
	return next, nil
}

// DefaultZoom returns the stored zoom level.
func (m *Map) DefaultZoom() float64 {
	raw, ok, err := m.store.Get(MapNamespace, keyDefaultZoom)
	if err != nil {
		m.log.Warn("read zoom: %v", err)
		return DefaultZoom
	}
	if !ok {
		return DefaultZoom
	}
	z, err := strconv.ParseFloat(raw, 64)
	if err != nil || z < MinZoom || z > MaxZoom {
		return DefaultZoom
	}
	return z
}

// SetDefaultZoom persists z, which must lie in [MinZoom, MaxZoom].
func (m *Map) SetDefaultZoom(z float64) error {
	if z < MinZoom || z > MaxZoom {
		return fmt.Errorf("zoom %.1f out of range [%.0f, %.0f]", z, MinZoom, MaxZoom)
	}
	if err := m.store.Put(MapNamespace, keyDefaultZoom, strconv.FormatFloat(z, 'f', -1, 64)); err != nil {
		return fmt.Errorf("set zoom: %w", err)
	}
	m.metrics.PrefWrite()
	return nil
}
