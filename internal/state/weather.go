package state

import (
	"context"
	"strings"
	"sync"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/weather"
)

// WeatherPhase is the weather panel's mode.
type WeatherPhase int

const (
	WeatherCheckingAPIKey WeatherPhase = iota
	WeatherNoAPIKey
	WeatherWaitingForLocation
	WeatherLoading
	WeatherSuccess
	WeatherError
)

func (p WeatherPhase) String() string {
	switch p {
	case WeatherCheckingAPIKey:
		return "checking api key"
	case WeatherNoAPIKey:
		return "no api key"
	case WeatherWaitingForLocation:
		return "waiting for location"
	case WeatherLoading:
		return "loading"
	case WeatherSuccess:
		return "success"
	case WeatherError:
		return "error"
	default:
		return "unknown"
	}
}

// WeatherState is one weather panel state. Data is set in WeatherSuccess and
// Message in WeatherError.
type WeatherState struct {
	Phase   WeatherPhase
	Data    weather.DisplayData
	Message string
}

// WeatherSource is the subset of weather.Repository the panel needs.
type WeatherSource interface {
	HasAPIKey() bool
	SaveAPIKey(key string) error
	RemoveAPIKey() error
	ByCoordinates(ctx context.Context, lat, lon float64) weather.Result
}

// Weather drives the weather panel from the GPS stream and the stored API
// key.
type Weather struct {
	repo WeatherSource
	gps  sensor.Source
	log  *logging.Logger

	mu       sync.RWMutex
	ctx      context.Context
	state    WeatherState
	location *sensor.Location
	keyValid bool
	started  bool
	gen      uint64
	hub      hub[WeatherState]
	wg       sync.WaitGroup
}

// NewWeather creates the weather panel state in WeatherCheckingAPIKey.
func NewWeather(repo WeatherSource, gps sensor.Source, log *logging.Logger) *Weather {
	if log == nil {
		log = logging.Discard()
	}
	return &Weather{
		repo:  repo,
		gps:   gps,
		log:   log.With("component", "weather"),
		ctx:   context.Background(),
		state: WeatherState{Phase: WeatherCheckingAPIKey},
	}
}

// Start checks for an API key and begins following GPS until ctx is done.
// Later calls are no-ops.
func (w *Weather) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.ctx = ctx
	w.keyValid = w.repo.HasAPIKey()
	if w.keyValid {
		w.setLocked(WeatherState{Phase: WeatherWaitingForLocation})
	} else {
		w.setLocked(WeatherState{Phase: WeatherNoAPIKey})
	}
	w.mu.Unlock()

	stream := w.gps.Observe(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for r := range stream.Results() {
			w.onLocation(r)
		}
	}()
}

func (w *Weather) onLocation(r sensor.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch r.State {
	case sensor.StateData:
		loc, ok := r.Location()
		if !ok {
			return
		}
		w.location = &loc
		if w.keyValid {
			w.fetchLocked()
		}
	case sensor.StateError:
		if w.keyValid {
			w.setLocked(WeatherState{Phase: WeatherError, Message: "Location error: " + r.Message})
		}
	}
}

// Refresh re-fetches for the last known location.
func (w *Weather) Refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.keyValid = w.repo.HasAPIKey()
	switch {
	case !w.keyValid:
		w.gen++
		w.setLocked(WeatherState{Phase: WeatherNoAPIKey})
	case w.location != nil:
		w.fetchLocked()
	default:
		w.setLocked(WeatherState{Phase: WeatherWaitingForLocation})
	}
}

// SaveAPIKey stores key and fetches if a location is known. A blank key is
// ignored.
func (w *Weather) SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if err := w.repo.SaveAPIKey(key); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.keyValid = true
	if w.location != nil {
		w.fetchLocked()
	} else {
		w.setLocked(WeatherState{Phase: WeatherWaitingForLocation})
	}
	return nil
}

// RemoveAPIKey deletes the stored key and discards any fetch in flight.
func (w *Weather) RemoveAPIKey() error {
	if err := w.repo.RemoveAPIKey(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.keyValid = false
	w.gen++
	w.setLocked(WeatherState{Phase: WeatherNoAPIKey})
	return nil
}

// State returns the current state.
func (w *Weather) State() WeatherState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Location returns the last GPS fix used for weather.
func (w *Weather) Location() (sensor.Location, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.location == nil {
		return sensor.Location{}, false
	}
	return *w.location, true
}

// APIKeyValid reports whether the panel believes a usable key is stored.
func (w *Weather) APIKeyValid() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.keyValid
}

// Subscribe delivers the current state followed by every transition in
// order.
func (w *Weather) Subscribe(ctx context.Context) <-chan WeatherState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.hub.subscribe(ctx, w.state)
}

// Wait blocks until the GPS observer and any in-flight fetch have exited.
func (w *Weather) Wait() {
	w.wg.Wait()
}

// fetchLocked moves to Loading and fetches in the background. A newer fetch
// or a key removal supersedes it.
func (w *Weather) fetchLocked() {
	w.gen++
	gen := w.gen
	loc := *w.location
	ctx := w.ctx
	w.setLocked(WeatherState{Phase: WeatherLoading})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		res := w.repo.ByCoordinates(ctx, loc.Latitude, loc.Longitude)

		w.mu.Lock()
		defer w.mu.Unlock()
		if gen != w.gen {
			return
		}
		switch res.Kind {
		case weather.KindSuccess:
			w.setLocked(WeatherState{Phase: WeatherSuccess, Data: res.Data})
		case weather.KindNoAPIKey:
			w.keyValid = false
			w.setLocked(WeatherState{Phase: WeatherNoAPIKey})
		default:
			w.log.Warn("fetch failed: %s", res.Message)
			w.setLocked(WeatherState{Phase: WeatherError, Message: res.Message})
		}
	}()
}

func (w *Weather) setLocked(s WeatherState) {
	w.state = s
	w.hub.publish(s)
}
