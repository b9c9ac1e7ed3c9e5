package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/sensor"
)

// LocationPhase is the map's view of the GPS stream.
type LocationPhase int

const (
	LocationLoading LocationPhase = iota
	LocationSuccess
	LocationError
)

func (p LocationPhase) String() string {
	switch p {
	case LocationLoading:
		return "loading"
	case LocationSuccess:
		return "success"
	case LocationError:
		return "error"
	default:
		return "unknown"
	}
}

// MapState is what the map panel shows.
type MapState struct {
	Phase    LocationPhase
	Location sensor.Location // set in LocationSuccess
	Message  string          // set in LocationError

	Provider prefs.Provider
	Zoom     float64

	Query     string
	Results   []search.Place
	SearchErr string
	Selected  *search.Place
}

// Center is the point the map is centred on: the selected search result if
// any, otherwise the current fix.
func (s MapState) Center() (lat, lon float64, ok bool) {
	if s.Selected != nil {
		return s.Selected.Lat, s.Selected.Lon, true
	}
	if s.Phase == LocationSuccess {
		return s.Location.Latitude, s.Location.Longitude, true
	}
	return 0, 0, false
}

func (s MapState) clone() MapState {
	s.Results = slices.Clone(s.Results)
	if s.Selected != nil {
		p := *s.Selected
		s.Selected = &p
	}
	return s
}

// MapOptions tunes the search box.
type MapOptions struct {
	Debounce       time.Duration
	MinQueryLength int
}

// Map follows GPS for the map panel and owns its search box.
type Map struct {
	gps    sensor.Source
	prefs  *prefs.Map
	search search.SearchFunc
	opts   MapOptions
	log    *logging.Logger

	mu       sync.RWMutex
	state    MapState
	debounce *search.Debouncer
	started  bool
	hub      hub[MapState]
	wg       sync.WaitGroup
}

// NewMap creates the map panel state. fn may be nil to disable search.
func NewMap(gps sensor.Source, mp *prefs.Map, fn search.SearchFunc, opts MapOptions, log *logging.Logger) *Map {
	if log == nil {
		log = logging.Discard()
	}
	return &Map{
		gps:    gps,
		prefs:  mp,
		search: fn,
		opts:   opts,
		log:    log.With("component", "map"),
		state: MapState{
			Phase:    LocationLoading,
			Provider: mp.Provider(),
			Zoom:     mp.DefaultZoom(),
		},
	}
}

// Start follows GPS and search results until ctx is done. Later calls are
// no-ops.
func (m *Map) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	if m.search != nil {
		m.debounce = search.NewDebouncer(ctx, m.search, m.opts.Debounce, m.opts.MinQueryLength)
	}
	deb := m.debounce
	m.mu.Unlock()

	stream := m.gps.Observe(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for r := range stream.Results() {
			m.update(func(s *MapState) {
				switch r.State {
				case sensor.StateLoading:
					s.Phase = LocationLoading
				case sensor.StateData:
					if loc, ok := r.Location(); ok {
						s.Phase, s.Location, s.Message = LocationSuccess, loc, ""
					}
				case sensor.StateError:
					s.Phase, s.Message = LocationError, r.Message
				}
			})
		}
	}()

	if deb == nil {
		return
	}
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		<-ctx.Done()
		deb.Close()
	}()
	go func() {
		defer m.wg.Done()
		for u := range deb.Updates() {
			m.onSearch(u)
		}
	}()
}

func (m *Map) onSearch(u search.Update) {
	m.update(func(s *MapState) {
		if u.Query != s.Query {
			return
		}
		s.Results, s.SearchErr = u.Places, ""
		if u.Err != nil {
			s.Results, s.SearchErr = nil, u.Err.Error()
			m.log.Warn("search %q: %v", u.Query, u.Err)
		}
	})
}

// Search updates the search box text. Results arrive asynchronously.
func (m *Map) Search(q string) {
	m.mu.Lock()
	deb := m.debounce
	m.mu.Unlock()
	if deb == nil {
		return
	}

	q = search.TrimQuery(q)
	m.update(func(s *MapState) {
		s.Query = q
		if len([]rune(q)) < m.minQueryLength() {
			s.Results, s.SearchErr = nil, ""
		}
	})
	deb.Input(q)
}

func (m *Map) minQueryLength() int {
	if m.opts.MinQueryLength > 0 {
		return m.opts.MinQueryLength
	}
	return search.DefaultMinQueryLength
}

// Select recentres the map on the i-th search result.
func (m *Map) Select(i int) bool {
	ok := false
	m.update(func(s *MapState) {
		if i < 0 || i >= len(s.Results) {
			return
		}
		p := s.Results[i]
		s.Selected = &p
		ok = true
	})
	return ok
}

// ClearSelection returns the map to following GPS.
func (m *Map) ClearSelection() {
	m.update(func(s *MapState) { s.Selected = nil })
}

// ToggleProvider switches and persists the tile provider.
func (m *Map) ToggleProvider() (prefs.Provider, error) {
	p, err := m.prefs.ToggleProvider()
	if err != nil {
		return m.State().Provider, err
	}
	m.update(func(s *MapState) { s.Provider = p })
	return p, nil
}

// SetZoom changes the current zoom and persists it as the default.
func (m *Map) SetZoom(z float64) error {
	if err := m.prefs.SetDefaultZoom(z); err != nil {
		return err
	}
	z = m.prefs.DefaultZoom()
	m.update(func(s *MapState) { s.Zoom = z })
	return nil
}

// State returns a copy of the current state.
func (m *Map) State() MapState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Subscribe delivers the current state followed by every change.
func (m *Map) Subscribe(ctx context.Context) <-chan MapState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hub.subscribe(ctx, m.state.clone())
}

// Wait blocks until the goroutines started by Start have exited.
func (m *Map) Wait() {
	m.wg.Wait()
}

func (m *Map) update(fn func(*MapState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.hub.publish(m.state.clone())
}
