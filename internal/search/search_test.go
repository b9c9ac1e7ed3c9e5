package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const londonJSON = `[
  {"place_id": 1, "display_name": "London, Greater London, England, United Kingdom", "lat": "51.5073219", "lon": "-0.1276474", "type": "city"},
  {"place_id": 2, "display_name": "London, Ontario, Canada", "lat": "42.9836747", "lon": "-81.2496068", "type": "city"}
]`

func newServer(t *testing.T, hits *atomic.Int32, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "0", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "alkaid-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/"), WithUserAgent("alkaid-test/1.0"), WithLimit(2))
	places, err := c.Search(context.Background(), "  London ")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "London, Ontario, Canada", places[1].DisplayName)
	assert.InDelta(t, 51.5073219, places[0].Lat, 1e-9)
	assert.InDelta(t, -81.2496068, places[1].Lon, 1e-9)
}

func TestClient_BlankQuerySkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, londonJSON)

	places, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Zero(t, hits.Load())
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "badlat":
			w.Write([]byte(`[{"display_name": "x", "lat": "north", "lon": "0"}]`))
		default:
			w.Write([]byte(`{"not": "a list"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	ctx := context.Background()

	_, err := c.Search(ctx, "busy")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)

	_, err = c.Search(ctx, "badlat")
	assert.ErrorContains(t, err, `parse lat "north"`)

	_, err = c.Search(ctx, "other")
	assert.ErrorContains(t, err, "decode response")
}

func TestClient_CacheNormalizesQuery(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits, londonJSON)

	cache, err := NewCache(2, nil)
	require.NoError(t, err)
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))
	ctx := context.Background()

	for _, q := range []string{"London", " london", "LONDON  "} {
		places, err := c.Search(ctx, q)
		require.NoError(t, err)
		assert.Len(t, places, 2)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, _ = c.Search(ctx, "paris")
	_, _ = c.Search(ctx, "tokyo")
	assert.Equal(t, 2, cache.Len())
	_, _ = c.Search(ctx, "london")
	assert.Equal(t, int32(4), hits.Load(), "oldest entry evicted")
}

func TestClient_ConcurrentIdenticalQueriesShareRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	cache, err := NewCache(0, nil)
	require.NoError(t, err)
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			places, err := c.Search(context.Background(), "london")
			assert.NoError(t, err)
			assert.Len(t, places, 2)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	cache, err := NewCache(0, nil)
	require.NoError(t, err)
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Search(first, "london")
		firstErr <- err
	}()
	<-started

	type result struct {
		places []Place
		err    error
	}
	second := make(chan result, 1)
	go func() {
		places, err := c.Search(context.Background(), "london")
		second <- result{places, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.places, 2)
	assert.Equal(t, int32(1), hits.Load())
}

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) search(ctx context.Context, q string) ([]Place, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	if q == "slow" {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if q == "fail" {
		return nil, errors.New("boom")
	}
	return []Place{{DisplayName: q}}, nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func nextUpdate(t *testing.T, d *Debouncer) Update {
	t.Helper()
	select {
	case u := <-d.Updates():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
		return Update{}
	}
}

func TestDebouncer_FirstCrossingIsImmediate(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(context.Background(), rec.search, time.Hour, 3)
	defer d.Close()

	d.Input("lon")
	u := nextUpdate(t, d)
	assert.Equal(t, "lon", u.Query)
	assert.Equal(t, []Place{{DisplayName: "lon"}}, u.Places)
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(context.Background(), rec.search, 50*time.Millisecond, 3)
	defer d.Close()

	d.Input("lon")
	assert.Equal(t, "lon", nextUpdate(t, d).Query)

	d.Input("lond")
	d.Input("londo")
	d.Input("london")
	assert.Equal(t, "london", nextUpdate(t, d).Query)
	assert.Equal(t, []string{"lon", "london"}, rec.seen())
}

func TestDebouncer_ShortQueryClearsAndRearms(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(context.Background(), rec.search, time.Hour, 3)
	defer d.Close()

	d.Input("par")
	assert.Equal(t, "par", nextUpdate(t, d).Query)

	d.Input("pa")
	u := nextUpdate(t, d)
	assert.True(t, u.Cleared)
	assert.Empty(t, u.Places)

	d.Input(" rom ")
	assert.Equal(t, "rom", nextUpdate(t, d).Query)
}

func TestDebouncer_DropsStaleSearch(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(context.Background(), rec.search, 20*time.Millisecond, 3)
	defer d.Close()

	d.Input("slow")
	d.Input("fail")
	u := nextUpdate(t, d)
	assert.Equal(t, "fail", u.Query)
	assert.EqualError(t, u.Err, "boom")

	select {
	case u := <-d.Updates():
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_CloseClosesUpdates(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(context.Background(), rec.search, 10*time.Millisecond, 3)

	d.Input("slow")
	d.Close()
	d.Close()
	d.Input("ignored")

	_, ok := <-d.Updates()
	assert.False(t, ok)
}
