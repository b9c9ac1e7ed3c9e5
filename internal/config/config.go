// Package config loads alkaid's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/alkaid/internal/device"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/version"
)

// Environment overrides.
const (
	EnvWeatherAPIKey = "ALKAID_WEATHER_API_KEY"
	EnvLogLevel      = "ALKAID_LOG_LEVEL"
	EnvDataDir       = "ALKAID_DATA_DIR"
)

// Config holds all alkaid configuration.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	// RefreshInterval drives the TUI clock and sky redraw.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	Weather  WeatherConfig  `yaml:"weather"`
	Search   SearchConfig   `yaml:"search"`
	Location LocationConfig `yaml:"location"`
	Device   DeviceConfig   `yaml:"device"`
	Server   ServerConfig   `yaml:"server"`
}

// WeatherConfig configures the weather API client.
type WeatherConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// APIKey is normally left empty and stored encrypted via `alkaid apikey set`.
	APIKey string `yaml:"api_key,omitempty"`
}

// SearchConfig configures place search.
type SearchConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	Limit          int           `yaml:"limit"`
	MinQueryLength int           `yaml:"min_query_length"`
	Debounce       time.Duration `yaml:"debounce"`
	CacheSize      int           `yaml:"cache_size"`
}

// LocationConfig is the continuous location request.
type LocationConfig struct {
	Interval time.Duration `yaml:"interval"`
	Fastest  time.Duration `yaml:"fastest"`
	MaxDelay time.Duration `yaml:"max_delay"`
}

// DeviceConfig describes the simulated device.
type DeviceConfig struct {
	// Sensors lists hardware present, by short name ("barometer", "light", ...).
	Sensors          []string      `yaml:"sensors"`
	FailRegister     []string      `yaml:"fail_register,omitempty"`
	FineLocation     bool          `yaml:"fine_location"`
	CoarseLocation   bool          `yaml:"coarse_location"`
	Latitude         float64       `yaml:"latitude"`
	Longitude        float64       `yaml:"longitude"`
	Altitude         float64       `yaml:"altitude"`
	Accuracy         float64       `yaml:"accuracy"`
	SampleInterval   time.Duration `yaml:"sample_interval"`
	LocationInterval time.Duration `yaml:"location_interval"`
	StepDeg          float64       `yaml:"step_deg"`
	Seed             uint64        `yaml:"seed"`
}

// ServerConfig configures `alkaid serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dev := device.DefaultConfig()
	req := sensor.DefaultLocationRequest()

	names := make([]string, 0, len(dev.Sensors))
	for _, t := range dev.Sensors {
		if t != sensor.GPS {
			names = append(names, ShortName(t))
		}
	}

	return &Config{
		DataDir:         defaultDataDir(),
		LogLevel:        "info",
		RefreshInterval: time.Second,
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5",
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			UserAgent:      version.UserAgent,
			Timeout:        10 * time.Second,
			Limit:          5,
			MinQueryLength: 3,
			Debounce:       250 * time.Millisecond,
			CacheSize:      50,
		},
		Location: LocationConfig{
			Interval: req.Interval,
			Fastest:  req.Fastest,
			MaxDelay: req.MaxDelay,
		},
		Device: DeviceConfig{
			Sensors:        names,
			FineLocation:   dev.FineLocation,
			CoarseLocation: dev.CoarseLocation,
			Latitude:       dev.Start.Latitude,
			Longitude:      dev.Start.Longitude,
			Altitude:       dev.Start.Altitude,
			Accuracy:       dev.Start.Accuracy,
			SampleInterval: dev.SampleInterval,
			StepDeg:        dev.StepDeg,
			Seed:           dev.Seed,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/alkaid/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "alkaid", "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "alkaid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alkaid"
	}
	return filepath.Join(home, ".local", "share", "alkaid")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv(EnvWeatherAPIKey); key != "" {
		c.Weather.APIKey = key
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is empty"))
	}
	if c.Search.MinQueryLength < 1 {
		errs = append(errs, fmt.Errorf("search.min_query_length must be >= 1, got %d", c.Search.MinQueryLength))
	}
	if c.Search.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("search.cache_size must be >= 1, got %d", c.Search.CacheSize))
	}
	if c.Location.Interval <= 0 {
		errs = append(errs, errors.New("location.interval must be positive"))
	}
	for _, name := range append(append([]string(nil), c.Device.Sensors...), c.Device.FailRegister...) {
		if _, ok := TypeFromShortName(name); !ok {
			errs = append(errs, fmt.Errorf("device: unknown sensor %q", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DBPath is the preferences database inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "alkaid.db")
}

// LocationRequest converts the location section.
func (c *Config) LocationRequest() sensor.LocationRequest {
	return sensor.LocationRequest{
		Priority: sensor.PriorityHighAccuracy,
		Interval: c.Location.Interval,
		Fastest:  c.Location.Fastest,
		MaxDelay: c.Location.MaxDelay,
	}
}

// DeviceConfig converts the device section for device.New.
func (c *Config) DeviceConfig() device.Config {
	d := c.Device
	out := device.Config{
		FailRegister:     make(map[sensor.Type]bool),
		FineLocation:     d.FineLocation,
		CoarseLocation:   d.CoarseLocation,
		HasLastKnown:     true,
		SampleInterval:   d.SampleInterval,
		LocationInterval: d.LocationInterval,
		StepDeg:          d.StepDeg,
		Seed:             d.Seed,
		Start: sensor.Location{
			Latitude: d.Latitude, Longitude: d.Longitude,
			Altitude: d.Altitude, HasAltitude: true,
			Accuracy: d.Accuracy, HasAccuracy: d.Accuracy > 0,
		},
	}
	for _, name := range d.Sensors {
		if t, ok := TypeFromShortName(name); ok {
			out.Sensors = append(out.Sensors, t)
		}
	}
	for _, name := range d.FailRegister {
		if t, ok := TypeFromShortName(name); ok {
			out.FailRegister[t] = true
		}
	}
	return out
}

// ShortName is the preference key without its "show_" prefix.
func ShortName(t sensor.Type) string {
	return strings.TrimPrefix(t.Key(), "show_")
}

// TypeFromShortName accepts "light" as well as "show_light".
func TypeFromShortName(name string) (sensor.Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "show_") {
		name = "show_" + name
	}
	return sensor.TypeFromKey(name)
}
