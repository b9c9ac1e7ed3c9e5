package sensor

import (
	"context"

	"github.com/litescript/alkaid/internal/metrics"
)

// Registry maps every Type to its Source.
type Registry struct {
	sources map[Type]Source
}

// NewRegistry wires a HardwareSource for each hardware type and a
// LocationSource for GPS. m may be nil.
func NewRegistry(mgr Manager, loc LocationProvider, m *metrics.Collector) *Registry {
	r := &Registry{sources: make(map[Type]Source, len(types))}
	for _, t := range AllTypes() {
		if t == GPS {
			src := NewLocationSource(loc)
			src.Metrics = m
			r.sources[t] = src
			continue
		}
		src := NewHardwareSource(t, mgr)
		src.Metrics = m
		r.sources[t] = src
	}
	return r
}

// Set replaces the source for t.
func (r *Registry) Set(t Type, src Source) {
	r.sources[t] = src
}

// Source returns the source for t.
func (r *Registry) Source(t Type) (Source, bool) {
	src, ok := r.sources[t]
	return src, ok
}

// Observe opens a stream on t's source. An unknown type yields a finished
// stream carrying an error.
func (r *Registry) Observe(ctx context.Context, t Type) *Stream {
	src, ok := r.sources[t]
	if !ok {
		return closedStream(Error("Unknown sensor type"))
	}
	return src.Observe(ctx)
}

// Read opens a stream on t and returns the first settled result: data or an
// error. If ctx ends first the last result seen is returned, which is Loading
// when nothing arrived. The stream is closed before Read returns.
func (r *Registry) Read(ctx context.Context, t Type) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := r.Observe(ctx, t)
	defer s.Close()

	last := Loading()
	for {
		select {
		case res, ok := <-s.Results():
			if !ok {
				return last
			}
			last = res
			if !res.IsLoading() {
				return res
			}
		case <-ctx.Done():
			return last
		}
	}
}
