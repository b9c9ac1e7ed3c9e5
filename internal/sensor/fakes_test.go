package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRegistration struct {
	mu         sync.Mutex
	fn         func(Reading)
	unregCount int
}

func (r *fakeRegistration) Unregister() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregCount++
	r.fn = nil
}

func (r *fakeRegistration) push(v Reading) {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func (r *fakeRegistration) unregistered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregCount
}

type fakeManager struct {
	mu        sync.Mutex
	available map[Type]bool
	failWith  error
	regs      []*fakeRegistration
}

func newFakeManager(types ...Type) *fakeManager {
	m := &fakeManager{available: make(map[Type]bool)}
	for _, t := range types {
		m.available[t] = true
	}
	return m
}

func (m *fakeManager) HasSensor(t Type) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available[t]
}

func (m *fakeManager) Register(t Type, fn func(Reading)) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	reg := &fakeRegistration{fn: fn}
	m.regs = append(m.regs, reg)
	return reg, nil
}

func (m *fakeManager) registrations() []*fakeRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*fakeRegistration(nil), m.regs...)
}

type fakeLocation struct {
	mu         sync.Mutex
	fine       bool
	coarse     bool
	requestErr error
	lastKnown  Location
	hasLast    bool
	lastErr    error
	lastDelay  time.Duration
	requests   int
	lookups    int
	reg        *fakeRegistration
}

func (f *fakeLocation) HasPermission(p Permission) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p == PermissionFine {
		return f.fine
	}
	return f.coarse
}

func (f *fakeLocation) RequestUpdates(req LocationRequest, fn func(Location)) (Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	f.reg = &fakeRegistration{fn: func(r Reading) { fn(r.(Location)) }}
	return f.reg, nil
}

func (f *fakeLocation) LastKnown(ctx context.Context) (Location, bool, error) {
	f.mu.Lock()
	f.lookups++
	delay, loc, ok, err := f.lastDelay, f.lastKnown, f.hasLast, f.lastErr
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Location{}, false, ctx.Err()
		}
	}
	return loc, ok, err
}

func (f *fakeLocation) push(loc Location) {
	f.mu.Lock()
	reg := f.reg
	f.mu.Unlock()
	if reg != nil {
		reg.push(loc)
	}
}

func (f *fakeLocation) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *fakeLocation) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

var errBoom = errors.New("boom")

// next reads one result or fails after a second.
func next(t *testing.T, s *Stream) Result {
	t.Helper()
	select {
	case r, ok := <-s.Results():
		if !ok {
			t.Fatal("stream closed while waiting for a result")
		}
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a result")
	}
	return Result{}
}

// drain reads until the stream closes.
func drain(t *testing.T, s *Stream) []Result {
	t.Helper()
	var out []Result
	for {
		select {
		case r, ok := <-s.Results():
			if !ok {
				return out
			}
			out = append(out, r)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func assertOpen(t *testing.T, s *Stream) {
	t.Helper()
	select {
	case <-s.Done():
		t.Fatal("stream finished unexpectedly")
	default:
	}
}
