package sensor

import (
	"context"
	"sync"

	"github.com/litescript/alkaid/internal/metrics"
)

// streamBuffer bounds how far a slow consumer can lag before the oldest
// pending result is dropped.
const streamBuffer = 16

// Source produces independent observation streams.
type Source interface {
	Observe(ctx context.Context) *Stream
}

// Stream delivers the results of one observation. Each stream owns its own
// registration with the underlying provider.
//
// Identical consecutive results are suppressed. When the consumer falls
// behind by more than the buffer, the oldest pending result is dropped so
// the newest state always gets through.
type Stream struct {
	ch   chan Result
	done chan struct{}

	mu       sync.Mutex
	last     Result
	hasLast  bool
	closed   bool
	cleanups []func()
	wg       sync.WaitGroup

	once sync.Once
	stop func() bool
}

func newStream(ctx context.Context, key string, m *metrics.Collector) *Stream {
	s := &Stream{
		ch:   make(chan Result, streamBuffer),
		done: make(chan struct{}),
	}
	m.StreamOpened(key)
	s.cleanups = append(s.cleanups, func() { m.StreamClosed(key) })
	s.stop = context.AfterFunc(ctx, s.Close)
	return s
}

// Results is closed once the stream has been closed and drained of its
// registration.
func (s *Stream) Results() <-chan Result {
	return s.ch
}

// Done is closed when the stream finishes.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Latest returns the most recent result emitted, if any.
func (s *Stream) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Close releases the underlying registration and closes Results. The
// deregistration has completed when Close returns. Safe to call more than
// once and from any goroutine.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.stop()

		s.mu.Lock()
		s.closed = true
		cleanups := s.cleanups
		s.cleanups = nil
		s.mu.Unlock()

		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		s.wg.Wait()

		close(s.ch)
		close(s.done)
	})
}

// emit publishes r unless it repeats the previous result or the stream is
// closed. It never blocks.
func (s *Stream) emit(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.hasLast && s.last == r {
		return false
	}
	s.last, s.hasLast = r, true

	for {
		select {
		case s.ch <- r:
			return true
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// onClose registers fn to run during Close. If the stream is already
// closed, fn runs immediately.
func (s *Stream) onClose(fn func()) {
	s.mu.Lock()
	if !s.closed {
		s.cleanups = append(s.cleanups, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// spawn runs fn on a goroutine that Close waits for. fn receives a context
// cancelled when the stream closes.
func (s *Stream) spawn(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cleanups = append(s.cleanups, cancel)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// closedStream returns a stream that emits r and is already finished.
func closedStream(r Result) *Stream {
	s := newStream(context.Background(), "", nil)
	s.emit(r)
	s.Close()
	return s
}
