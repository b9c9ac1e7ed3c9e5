package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/litescript/alkaid/internal/metrics"
)

// ErrPermissionDenied is returned by a LocationProvider when the platform
// refuses an update request for lack of permission.
var ErrPermissionDenied = errors.New("location permission denied")

// Permission is a location permission grant.
type Permission int

const (
	PermissionFine Permission = iota
	PermissionCoarse
)

// Priority is the accuracy/power tradeoff requested from the provider.
type Priority int

const (
	PriorityHighAccuracy Priority = iota
	PriorityBalanced
	PriorityLowPower
)

// LocationRequest describes continuous location updates.
type LocationRequest struct {
	Priority Priority
	Interval time.Duration // desired update interval
	Fastest  time.Duration // minimum interval between updates
	MaxDelay time.Duration // maximum batching delay
}

// DefaultLocationRequest is a high-accuracy request every 10s, never faster
// than 5s, batched at most 20s.
func DefaultLocationRequest() LocationRequest {
	return LocationRequest{
		Priority: PriorityHighAccuracy,
		Interval: 10 * time.Second,
		Fastest:  5 * time.Second,
		MaxDelay: 20 * time.Second,
	}
}

// LocationProvider is the platform's fused location service.
type LocationProvider interface {
	HasPermission(p Permission) bool
	RequestUpdates(req LocationRequest, fn func(Location)) (Registration, error)
	// LastKnown returns the cached fix. ok is false when none exists.
	LastKnown(ctx context.Context) (loc Location, ok bool, err error)
}

// LocationSource observes GPS fixes.
type LocationSource struct {
	Provider LocationProvider
	Request  LocationRequest
	Metrics  *metrics.Collector
}

// NewLocationSource builds a source with DefaultLocationRequest.
func NewLocationSource(p LocationProvider) *LocationSource {
	return &LocationSource{Provider: p, Request: DefaultLocationRequest()}
}

// Observe checks permission (fine or coarse), then emits Loading and runs the
// continuous update request and the last-known lookup side by side. Either
// may deliver first; dedup drops a repeated fix. A failed update request
// emits only its error; no cached fix follows it.
func (l *LocationSource) Observe(ctx context.Context) *Stream {
	s := newStream(ctx, GPS.Key(), l.Metrics)

	if !l.Provider.HasPermission(PermissionFine) && !l.Provider.HasPermission(PermissionCoarse) {
		s.emit(Error("Location permission not granted"))
		s.Close()
		return s
	}

	s.emit(Loading())

	reg, err := l.Provider.RequestUpdates(l.Request, func(loc Location) {
		s.emit(Data(loc))
	})
	switch {
	case errors.Is(err, ErrPermissionDenied):
		s.emit(Error("Location permission denied"))
		return s
	case err != nil:
		s.emit(Errorf("GPS error: %v", err))
		return s
	}
	s.onClose(reg.Unregister)

	s.spawn(func(ctx context.Context) {
		loc, ok, err := l.Provider.LastKnown(ctx)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				s.emit(Errorf("Failed to get location: %v", err))
			}
		case ok:
			s.emit(Data(loc))
		}
	})

	return s
}
