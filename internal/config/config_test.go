package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/alkaid/internal/sensor"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.Weather.BaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Search.BaseURL)
	assert.Equal(t, 3, cfg.Search.MinQueryLength)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 50, cfg.Search.CacheSize)
	assert.NotEmpty(t, cfg.Search.UserAgent)

	req := cfg.LocationRequest()
	assert.Equal(t, 10*time.Second, req.Interval)
	assert.Equal(t, 5*time.Second, req.Fastest)
	assert.Equal(t, 20*time.Second, req.MaxDelay)

	assert.NotContains(t, cfg.Device.Sensors, "gps")
	assert.Contains(t, cfg.Device.Sensors, "barometer")
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvWeatherAPIKey, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDataDir, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoad_OverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
data_dir: /tmp/alkaid-test
search:
  debounce: 400ms
  min_query_length: 4
device:
  sensors: [light, humidity]
  fail_register: [humidity]
  fine_location: false
  coarse_location: true
`), 0o644))

	t.Setenv(EnvWeatherAPIKey, "env-key")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDataDir, "/var/lib/alkaid")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/alkaid", cfg.DataDir)
	assert.Equal(t, "env-key", cfg.Weather.APIKey)
	assert.Equal(t, 400*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 4, cfg.Search.MinQueryLength)
	assert.Equal(t, 50, cfg.Search.CacheSize, "unset fields keep defaults")

	dev := cfg.DeviceConfig()
	assert.Equal(t, []sensor.Type{sensor.Light, sensor.Humidity}, dev.Sensors)
	assert.True(t, dev.FailRegister[sensor.Humidity])
	assert.False(t, dev.FineLocation)
	assert.True(t, dev.CoarseLocation)
	assert.Equal(t, filepath.Join("/var/lib/alkaid", "alkaid.db"), cfg.DBPath())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("search: [not, a, map"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("device:\n  sensors: [radar]\n"), 0o644))
	_, err = Load(unknown)
	assert.ErrorContains(t, err, `unknown sensor "radar"`)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvWeatherAPIKey, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDataDir, "")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.Search.CacheSize = 10
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", back.LogLevel)
	assert.Equal(t, 10, back.Search.CacheSize)
	assert.Equal(t, cfg.Location, back.Location)
}

func TestTypeFromShortName(t *testing.T) {
	typ, ok := TypeFromShortName("Light")
	assert.True(t, ok)
	assert.Equal(t, sensor.Light, typ)

	typ, ok = TypeFromShortName("show_gps")
	assert.True(t, ok)
	assert.Equal(t, sensor.GPS, typ)

	_, ok = TypeFromShortName("sonar")
	assert.False(t, ok)
	assert.Equal(t, "barometer", ShortName(sensor.Barometer))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))

	got := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := Watch(ctx, path, nil, func(c *Config) { got <- c })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	select {
	case c := <-got:
		assert.Equal(t, "debug", c.LogLevel)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
