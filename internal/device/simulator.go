// Package device provides a simulated sensor and location platform so alkaid
// runs on machines without phone hardware.
package device

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/sensor"
)

// Config describes the simulated device.
type Config struct {
	Sensors        []sensor.Type        // hardware present on the device
	FailRegister   map[sensor.Type]bool // registrations that should fail
	FineLocation   bool
	CoarseLocation bool
	Start          sensor.Location // initial fix for the random walk
	HasLastKnown   bool            // whether a cached fix exists before the first update
	SampleInterval time.Duration   // hardware reading period
	// LocationInterval overrides the request interval when non-zero.
	LocationInterval time.Duration
	StepDeg          float64 // random walk step in degrees
	Seed             uint64
}

// DefaultConfig is a phone with every sensor and fine location permission,
// parked in San Francisco.
func DefaultConfig() Config {
	return Config{
		Sensors:        sensor.AllTypes(),
		FineLocation:   true,
		CoarseLocation: true,
		Start: sensor.Location{
			Latitude: 37.7749, Longitude: -122.4194,
			Altitude: 16, HasAltitude: true,
			Accuracy: 8, HasAccuracy: true,
		},
		HasLastKnown:   true,
		SampleInterval: time.Second,
		StepDeg:        0.0001,
		Seed:           1,
	}
}

// ErrRegisterFailed is returned when a registration is configured to fail.
var ErrRegisterFailed = errors.New("sensor registration rejected")

// Simulator implements sensor.Manager and sensor.LocationProvider.
type Simulator struct {
	log *logging.Logger

	mu        sync.Mutex
	cfg       Config
	available map[sensor.Type]bool
	rng       *rand.Rand
	current   sensor.Location
	hasFix    bool
	active    int
}

// New creates a simulator. log may be nil.
func New(cfg Config, log *logging.Logger) *Simulator {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = time.Second
	}
	avail := make(map[sensor.Type]bool, len(cfg.Sensors))
	for _, t := range cfg.Sensors {
		avail[t] = true
	}
	return &Simulator{
		log:       log.With("component", "device"),
		cfg:       cfg,
		available: avail,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		current:   cfg.Start,
		hasFix:    cfg.HasLastKnown,
	}
}

// SetAvailable adds or removes a hardware sensor.
func (s *Simulator) SetAvailable(t sensor.Type, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available[t] = ok
}

// SetPermissions changes the location permission grants.
func (s *Simulator) SetPermissions(fine, coarse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FineLocation = fine
	s.cfg.CoarseLocation = coarse
}

// Active returns the number of live registrations.
func (s *Simulator) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// HasSensor implements sensor.Manager.
func (s *Simulator) HasSensor(t sensor.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t != sensor.GPS && s.available[t]
}

// Register implements sensor.Manager.
func (s *Simulator) Register(t sensor.Type, fn func(sensor.Reading)) (sensor.Registration, error) {
	s.mu.Lock()
	fail := s.cfg.FailRegister[t]
	interval := s.cfg.SampleInterval
	s.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("register %s: %w", t.Key(), ErrRegisterFailed)
	}

	s.log.Debug("registered %s listener", t.Key())
	return s.start(interval, func() { fn(s.sample(t)) }), nil
}

// HasPermission implements sensor.LocationProvider.
func (s *Simulator) HasPermission(p sensor.Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch p {
	case sensor.PermissionFine:
		return s.cfg.FineLocation
	case sensor.PermissionCoarse:
		return s.cfg.CoarseLocation
	default:
		return false
	}
}

// RequestUpdates implements sensor.LocationProvider.
func (s *Simulator) RequestUpdates(req sensor.LocationRequest, fn func(sensor.Location)) (sensor.Registration, error) {
	s.mu.Lock()
	granted := s.cfg.FineLocation || s.cfg.CoarseLocation
	interval := s.cfg.LocationInterval
	s.mu.Unlock()

	if !granted {
		return nil, sensor.ErrPermissionDenied
	}
	if interval <= 0 {
		interval = req.Interval
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid location interval %v", interval)
	}

	s.log.Debug("location updates every %v", interval)
	return s.start(interval, func() { fn(s.walk()) }), nil
}

// LastKnown implements sensor.LocationProvider.
func (s *Simulator) LastKnown(ctx context.Context) (sensor.Location, bool, error) {
	if err := ctx.Err(); err != nil {
		return sensor.Location{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasFix, nil
}

type registration struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
	sim  *Simulator
}

func (r *registration) Unregister() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done
		r.sim.mu.Lock()
		r.sim.active--
		r.sim.mu.Unlock()
	})
}

// start ticks tick every interval on its own goroutine until unregistered.
func (s *Simulator) start(interval time.Duration, tick func()) *registration {
	r := &registration{
		stop: make(chan struct{}),
		done: make(chan struct{}),
		sim:  s,
	}
	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				select {
				case <-r.stop:
					return
				default:
				}
				tick()
			}
		}
	}()
	return r
}

// jitter returns base plus −step, 0 or +step. Quantised noise means the
// same value often repeats between samples.
func (s *Simulator) jitter(base, step float64) float64 {
	return base + step*float64(s.rng.IntN(3)-1)
}

func (s *Simulator) sample(t sensor.Type) sensor.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t {
	case sensor.Barometer:
		return sensor.Scalar{Value: s.jitter(1013.2, 0.1)}
	case sensor.Temperature:
		return sensor.Scalar{Value: s.jitter(21.5, 0.1)}
	case sensor.Humidity:
		return sensor.Scalar{Value: s.jitter(45, 0.5)}
	case sensor.Light:
		return sensor.Scalar{Value: s.jitter(320, 5)}
	case sensor.Gyroscope:
		return sensor.Vector3{X: s.jitter(0, 0.01), Y: s.jitter(0, 0.01), Z: s.jitter(0, 0.01)}
	case sensor.Accelerometer:
		return sensor.Vector3{X: s.jitter(0, 0.01), Y: s.jitter(0, 0.01), Z: s.jitter(9.81, 0.01)}
	case sensor.Magnetometer:
		return sensor.Vector3{X: s.jitter(22, 0.5), Y: s.jitter(5, 0.5), Z: s.jitter(-42, 0.5)}
	default:
		return sensor.Scalar{}
	}
}

// walk advances the random walk and records the new last-known fix.
func (s *Simulator) walk() sensor.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := s.cfg.StepDeg
	s.current.Latitude = s.jitter(s.current.Latitude, step)
	s.current.Longitude = s.jitter(s.current.Longitude, step)
	s.hasFix = true
	return s.current
}
