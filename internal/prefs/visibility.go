package prefs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/metrics"
	"github.com/litescript/alkaid/internal/sensor"
)

// VisibilityNamespace holds one boolean per sensor preference key.
const VisibilityNamespace = "sensor_visibility_prefs"

const defaultVisible = true

// Visibility stores which sensor cards are shown. Every write bumps a single
// change counter and every watcher re-reads the full mapping on each bump.
type Visibility struct {
	store   Store
	log     *logging.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	version uint64
	subs    map[uuid.UUID]chan struct{}
}

// NewVisibility wraps store. log and m may be nil.
func NewVisibility(store Store, log *logging.Logger, m *metrics.Collector) *Visibility {
	if log == nil {
		log = logging.Discard()
	}
	return &Visibility{
		store:   store,
		log:     log.With("component", "visibility"),
		metrics: m,
		subs:    make(map[uuid.UUID]chan struct{}),
	}
}

// IsVisible returns the stored flag, defaulting to visible. A store failure
// is logged and reads as the default.
func (v *Visibility) IsVisible(t sensor.Type) bool {
	raw, ok, err := v.store.Get(VisibilityNamespace, t.Key())
	if err != nil {
		v.log.Warn("read %s: %v", t.Key(), err)
		return defaultVisible
	}
	if !ok {
		return defaultVisible
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultVisible
	}
	return b
}

// SetVisible persists the flag and bumps the change counter.
func (v *Visibility) SetVisible(t sensor.Type, visible bool) error {
	if !t.Valid() {
		return fmt.Errorf("unknown sensor type %d", int(t))
	}
	if err := v.store.Put(VisibilityNamespace, t.Key(), strconv.FormatBool(visible)); err != nil {
		return fmt.Errorf("set %s: %w", t.Key(), err)
	}
	v.bump()
	return nil
}

// All returns the flag for every type.
func (v *Visibility) All() map[sensor.Type]bool {
	out := make(map[sensor.Type]bool)
	for _, t := range sensor.AllTypes() {
		out[t] = v.IsVisible(t)
	}
	return out
}

// VisibleTypes returns the visible types in display order.
func (v *Visibility) VisibleTypes() []sensor.Type {
	var out []sensor.Type
	for _, t := range sensor.AllTypes() {
		if v.IsVisible(t) {
			out = append(out, t)
		}
	}
	return out
}

// ResetToDefaults makes every type visible in one batch with one bump.
func (v *Visibility) ResetToDefaults() error {
	entries := make(map[string]string)
	for _, t := range sensor.AllTypes() {
		entries[t.Key()] = strconv.FormatBool(defaultVisible)
	}
	if err := v.store.PutBatch(VisibilityNamespace, entries); err != nil {
		return fmt.Errorf("reset visibility: %w", err)
	}
	v.bump()
	return nil
}

// Version is the change counter.
func (v *Visibility) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// WatchVisibility emits t's current flag, then a fresh read after every
// change. The channel closes when ctx is done.
func (v *Visibility) WatchVisibility(ctx context.Context, t sensor.Type) <-chan bool {
	return watch(ctx, v, func() bool { return v.IsVisible(t) })
}

// WatchVisible emits the visible types, then a fresh list after every change.
func (v *Visibility) WatchVisible(ctx context.Context) <-chan []sensor.Type {
	return watch(ctx, v, v.VisibleTypes)
}

func (v *Visibility) bump() {
	v.mu.Lock()
	v.version++
	for _, ch := range v.subs {
		select {
		case ch <- struct{}{}:
		default:
			// A wakeup is already pending; it will re-read everything.
		}
	}
	v.mu.Unlock()
	v.metrics.PrefWrite()
}

func (v *Visibility) subscribe() (uuid.UUID, <-chan struct{}) {
	id := uuid.New()
	ch := make(chan struct{}, 1)
	v.mu.Lock()
	v.subs[id] = ch
	v.mu.Unlock()
	return id, ch
}

func (v *Visibility) unsubscribe(id uuid.UUID) {
	v.mu.Lock()
	delete(v.subs, id)
	v.mu.Unlock()
}

// watch runs read once up front and again on every bump, delivering each
// result in order.
func watch[T any](ctx context.Context, v *Visibility, read func() T) <-chan T {
	out := make(chan T)
	id, wake := v.subscribe()

	go func() {
		defer close(out)
		defer v.unsubscribe(id)

		for {
			select {
			case out <- read():
			case <-ctx.Done():
				return
			}
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
