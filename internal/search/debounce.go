package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultDebounce is the quiet period before a query is sent.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultMinQueryLength is the shortest query worth sending.
	DefaultMinQueryLength = 3
)

// SearchFunc runs one query.
type SearchFunc func(ctx context.Context, q string) ([]Place, error)

// TrimQuery is the text of q that is actually searched for.
func TrimQuery(q string) string {
	return strings.TrimSpace(q)
}

// Update is delivered for every settled query. Cleared is set when the input
// dropped below the minimum length and results should be emptied.
type Update struct {
	Query   string
	Places  []Place
	Err     error
	Cleared bool
}

// Debouncer turns keystroke-rate input into search requests. Only the most
// recent input produces an Update; older in-flight searches are cancelled.
type Debouncer struct {
	search SearchFunc
	delay  time.Duration
	minLen int

	ctx    context.Context
	out    chan Update
	wg     sync.WaitGroup
	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	armed  bool
	closed bool
}

// NewDebouncer creates a debouncer. A zero delay or minLen takes the default.
// ctx bounds every search it starts.
func NewDebouncer(ctx context.Context, fn SearchFunc, delay time.Duration, minLen int) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	return &Debouncer{
		search: fn,
		delay:  delay,
		minLen: minLen,
		ctx:    ctx,
		out:    make(chan Update, 4),
	}
}

// Updates delivers settled results. Closed by Close.
func (d *Debouncer) Updates() <-chan Update {
	return d.out
}

// Input feeds the current text of the search box. The first input that
// reaches the minimum length searches immediately; later edits wait for the
// quiet period.
func (d *Debouncer) Input(q string) {
	q = TrimQuery(q)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.gen++
	d.stopLocked()

	if utf8.RuneCountInString(q) < d.minLen {
		d.armed = false
		d.sendLocked(Update{Query: q, Cleared: true})
		return
	}
	if !d.armed {
		d.armed = true
		d.startLocked(d.gen, q)
		return
	}

	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed || gen != d.gen {
			return
		}
		d.startLocked(gen, q)
	})
}

// Close cancels pending work, waits for in-flight searches and closes
// Updates.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()

	d.wg.Wait()
	close(d.out)
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) startLocked(gen uint64, q string) {
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		places, err := d.search(ctx, q)
		if ctx.Err() != nil {
			return
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed || gen != d.gen {
			return
		}
		d.sendLocked(Update{Query: q, Places: places, Err: err})
	}()
}

// sendLocked never blocks; a slow reader loses the oldest update.
func (d *Debouncer) sendLocked(u Update) {
	for {
		select {
		case d.out <- u:
			return
		default:
		}
		select {
		case <-d.out:
		default:
		}
	}
}
