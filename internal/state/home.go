package state

import (
	"context"
	"slices"
	"sync"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/sensor"
)

// HomeState is what the sensors panel shows: the GPS widget and one card per
// visible hardware sensor.
type HomeState struct {
	GPS sensor.Result
	// VisibleSensors never contains GPS; it has its own widget.
	VisibleSensors []sensor.Type
}

func (s HomeState) clone() HomeState {
	s.VisibleSensors = slices.Clone(s.VisibleSensors)
	return s
}

// Home merges the GPS stream with the visible-sensor preference.
type Home struct {
	gps sensor.Source
	vis *prefs.Visibility
	log *logging.Logger

	mu      sync.RWMutex
	state   HomeState
	started bool
	hub     hub[HomeState]
	wg      sync.WaitGroup
}

// NewHome creates the sensors panel state.
func NewHome(gps sensor.Source, vis *prefs.Visibility, log *logging.Logger) *Home {
	if log == nil {
		log = logging.Discard()
	}
	return &Home{
		gps:   gps,
		vis:   vis,
		log:   log.With("component", "home"),
		state: HomeState{GPS: sensor.Loading()},
	}
}

// StartObserving begins following GPS and visibility changes until ctx is
// done. Only the first call has any effect, so a panel re-entering the
// foreground never opens a second GPS registration.
func (h *Home) StartObserving(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	visible := h.vis.WatchVisible(ctx)
	stream := h.gps.Observe(ctx)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		for types := range visible {
			types = slices.DeleteFunc(types, func(t sensor.Type) bool { return t == sensor.GPS })
			h.update(func(s *HomeState) { s.VisibleSensors = types })
		}
	}()
	go func() {
		defer h.wg.Done()
		for r := range stream.Results() {
			h.update(func(s *HomeState) { s.GPS = r })
		}
		h.log.Debug("gps stream finished")
	}()
}

// Started reports whether StartObserving has run.
func (h *Home) Started() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// State returns a copy of the current state.
func (h *Home) State() HomeState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.clone()
}

// Subscribe delivers the current state followed by every change.
func (h *Home) Subscribe(ctx context.Context) <-chan HomeState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hub.subscribe(ctx, h.state.clone())
}

// Wait blocks until the observers started by StartObserving have exited.
func (h *Home) Wait() {
	h.wg.Wait()
}

func (h *Home) update(fn func(*HomeState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.state)
	h.hub.publish(h.state.clone())
}
