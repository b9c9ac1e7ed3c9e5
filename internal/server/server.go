// Package server exposes alkaid's sensors, sky, weather, search and
// preferences over a small JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/metrics"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
)

// DefaultReadTimeout bounds a one-shot sensor read.
const DefaultReadTimeout = 3 * time.Second

// Deps are the services the API reads from. Search, Weather and Metrics may
// be nil; their routes then answer 503 or are left out.
type Deps struct {
	Sensors     *sensor.Registry
	Visibility  *prefs.Visibility
	Sky         *state.Sky
	Weather     *state.Weather
	Search      *search.Client
	Metrics     *metrics.Collector
	Log         *logging.Logger
	ReadTimeout time.Duration
	Now         func() time.Time
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	log    *logging.Logger
	router *mux.Router
	srv    *http.Server
}

// New builds the router and an http.Server bound to addr.
func New(addr string, d Deps) *Server {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.ReadTimeout <= 0 {
		d.ReadTimeout = DefaultReadTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	s := &Server{
		deps:   d,
		log:    d.Log.With("component", "server"),
		router: mux.NewRouter(),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestID)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sky", s.handleSky).Methods(http.MethodGet)
	api.HandleFunc("/sensors", s.handleSensors).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{key}", s.handleSensor).Methods(http.MethodGet)
	api.HandleFunc("/weather", s.handleWeather).Methods(http.MethodGet)
	api.HandleFunc("/weather/refresh", s.handleWeatherRefresh).Methods(http.MethodPost)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/prefs/visibility", s.handleVisibilityAll).Methods(http.MethodGet)
	api.HandleFunc("/prefs/visibility/reset", s.handleVisibilityReset).Methods(http.MethodPost)
	api.HandleFunc("/prefs/visibility/{key}", s.handleVisibilityGet).Methods(http.MethodGet)
	api.HandleFunc("/prefs/visibility/{key}", s.handleVisibilityPut).Methods(http.MethodPut)
}

// requestID tags every request with an X-Request-ID, reusing the caller's.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("%s %s id=%s took=%s", r.Method, r.URL.Path, id, time.Since(start))
	})
}
