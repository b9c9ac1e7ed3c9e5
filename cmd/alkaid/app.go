package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/config"
	"github.com/litescript/alkaid/internal/device"
	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/metrics"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/secure"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
	"github.com/litescript/alkaid/internal/weather"
)

func defaultConfigHint() string {
	return config.DefaultPath()
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// app is the wiring shared by the dashboard and the headless commands.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Collector

	store    *prefs.SQLiteStore
	keys     *secure.Storage
	vis      *prefs.Visibility
	mapPrefs *prefs.Map

	device  *device.Simulator
	sensors *sensor.Registry
}

// newApp loads the config and opens the preference database. Callers must
// call close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logging.New(logging.ParseLevel(cfg.LogLevel))
	log.SetOutput(cmd.ErrOrStderr())

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	store, err := prefs.OpenSQLite(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	log.Debug("Preferences at %s", store.Path())

	sim := device.New(cfg.DeviceConfig(), log)
	reg := sensor.NewRegistry(sim, sim, m)
	reg.Set(sensor.GPS, &sensor.LocationSource{Provider: sim, Request: cfg.LocationRequest(), Metrics: m})

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		store:   store,
		keys: secure.New(store, cfg.DataDir,
			secure.WithOverride(cfg.Weather.APIKey),
			secure.WithLogger(log)),
		vis:      prefs.NewVisibility(store, log, m),
		mapPrefs: prefs.NewMap(store, log, m),
		device:   sim,
		sensors:  reg,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Closing preferences: %v", err)
	}
	a.log.Sync()
}

func (a *app) gps() sensor.Source {
	src, _ := a.sensors.Source(sensor.GPS)
	return src
}

func (a *app) weatherRepo() *weather.Repository {
	client := weather.NewClient(
		weather.WithBaseURL(a.cfg.Weather.BaseURL),
		weather.WithTimeout(a.cfg.Weather.Timeout),
		weather.WithMetrics(a.metrics),
	)
	return weather.NewRepository(client, a.keys)
}

func (a *app) searchClient() (*search.Client, error) {
	cache, err := search.NewCache(a.cfg.Search.CacheSize, a.metrics)
	if err != nil {
		return nil, err
	}
	return search.NewClient(
		search.WithBaseURL(a.cfg.Search.BaseURL),
		search.WithUserAgent(a.cfg.Search.UserAgent),
		search.WithTimeout(a.cfg.Search.Timeout),
		search.WithLimit(a.cfg.Search.Limit),
		search.WithCache(cache),
		search.WithMetrics(a.metrics),
	), nil
}

// fallbackObserver places the sky at the configured device start until the
// first GPS fix.
func (a *app) fallbackObserver() astro.Observer {
	return astro.Observer{
		LatDeg: a.cfg.Device.Latitude,
		LonDeg: a.cfg.Device.Longitude,
		Name:   "Default",
	}
}

// sky builds the sky state and, when follow is set, tracks GPS until ctx is
// done.
func (a *app) sky(ctx context.Context, follow bool) *state.Sky {
	sky := state.NewSky(a.gps(), a.fallbackObserver(), a.log)
	if follow {
		sky.Start(ctx)
	}
	return sky
}
