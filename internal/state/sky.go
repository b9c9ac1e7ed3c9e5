package state

import (
	"context"
	"sync"
	"time"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/sensor"
)

// Frame is one projected sky.
type Frame struct {
	Observer       astro.Observer
	HasFix         bool
	Time           time.Time
	Width, Height  float64
	Constellations []astro.ProjectedConstellation
	SunAltDeg      float64
	Twilight       astro.Twilight
}

// Sky keeps the observer position for the constellation view.
type Sky struct {
	gps     sensor.Source
	catalog []astro.Constellation
	log     *logging.Logger

	mu       sync.RWMutex
	observer astro.Observer
	hasFix   bool
	started  bool
	hub      hub[astro.Observer]
	wg       sync.WaitGroup
}

// NewSky creates the sky state. fallback is used until the first fix
// arrives.
func NewSky(gps sensor.Source, fallback astro.Observer, log *logging.Logger) *Sky {
	if log == nil {
		log = logging.Discard()
	}
	return &Sky{
		gps:      gps,
		catalog:  astro.Catalog(),
		log:      log.With("component", "sky"),
		observer: fallback,
	}
}

// Start follows GPS until ctx is done. Later calls are no-ops.
func (s *Sky) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	stream := s.gps.Observe(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for r := range stream.Results() {
			loc, ok := r.Location()
			if !ok {
				continue
			}
			s.SetObserver(astro.Observer{LatDeg: loc.Latitude, LonDeg: loc.Longitude, Name: "GPS"})
		}
	}()
}

// SetObserver replaces the observer position.
func (s *Sky) SetObserver(obs astro.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasFix && s.observer == obs {
		return
	}
	s.observer, s.hasFix = obs, true
	s.hub.publish(obs)
}

// Observer returns the current observer and whether it came from a fix.
func (s *Sky) Observer() (astro.Observer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observer, s.hasFix
}

// Subscribe delivers the current observer followed by every change.
func (s *Sky) Subscribe(ctx context.Context) <-chan astro.Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub.subscribe(ctx, s.observer)
}

// Catalog returns the constellations drawn by Frame.
func (s *Sky) Catalog() []astro.Constellation {
	return s.catalog
}

// Frame projects the catalog for t onto a width×height viewport.
func (s *Sky) Frame(t time.Time, width, height float64) Frame {
	obs, fix := s.Observer()

	cs := make([]astro.ProjectedConstellation, len(s.catalog))
	for i, c := range s.catalog {
		cs[i] = astro.ProjectConstellation(c, obs, t, width, height)
	}
	alt := astro.SunAltitude(obs, t)
	return Frame{
		Observer:       obs,
		HasFix:         fix,
		Time:           t,
		Width:          width,
		Height:         height,
		Constellations: cs,
		SunAltDeg:      alt,
		Twilight:       astro.TwilightFor(alt),
	}
}

// Draw renders the frame's constellations onto cv.
func (f Frame) Draw(cv astro.Canvas) {
	for _, pc := range f.Constellations {
		astro.DrawConstellation(cv, pc)
	}
}

// Wait blocks until the GPS observer has exited.
func (s *Sky) Wait() {
	s.wg.Wait()
}
