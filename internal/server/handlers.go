package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
	"github.com/litescript/alkaid/internal/version"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "alkaid",
		"version": version.Version,
	})
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type starJSON struct {
	Name    string     `json:"name"`
	AltDeg  float64    `json:"alt_deg"`
	AzDeg   *float64   `json:"az_deg"` // null when undefined
	Point   *pointJSON `json:"point,omitempty"`
	Visible bool       `json:"visible"`
}

type constellationJSON struct {
	Name  string     `json:"name"`
	Label *pointJSON `json:"label,omitempty"`
	Stars []starJSON `json:"stars"`
}

type skyJSON struct {
	Observer struct {
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Name string  `json:"name,omitempty"`
	} `json:"observer"`
	HasFix         bool                `json:"has_fix"`
	Time           time.Time           `json:"time"`
	Width          float64             `json:"width"`
	Height         float64             `json:"height"`
	SunAltDeg      float64             `json:"sun_alt_deg"`
	Twilight       string              `json:"twilight"`
	Constellations []constellationJSON `json:"constellations"`
}

func (s *Server) handleSky(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := floatParam(q.Get("width"), 80)
	if err != nil || width <= 0 {
		writeError(w, http.StatusBadRequest, "invalid width")
		return
	}
	height, err := floatParam(q.Get("height"), 40)
	if err != nil || height <= 0 {
		writeError(w, http.StatusBadRequest, "invalid height")
		return
	}
	at := s.deps.Now()
	if raw := q.Get("time"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid time, want RFC 3339")
			return
		}
	}

	f := s.deps.Sky.Frame(at, width, height)
	out := skyJSON{
		HasFix:         f.HasFix,
		Time:           f.Time.UTC(),
		Width:          f.Width,
		Height:         f.Height,
		SunAltDeg:      f.SunAltDeg,
		Twilight:       f.Twilight.String(),
		Constellations: make([]constellationJSON, 0, len(f.Constellations)),
	}
	out.Observer.Lat, out.Observer.Lon, out.Observer.Name = f.Observer.LatDeg, f.Observer.LonDeg, f.Observer.Name

	for _, pc := range f.Constellations {
		cj := constellationJSON{Name: pc.Name, Stars: make([]starJSON, len(pc.Stars))}
		if pc.HasCentroid {
			cj.Label = &pointJSON{X: pc.Centroid.X, Y: pc.Centroid.Y}
		}
		for i, ps := range pc.Stars {
			sj := starJSON{Name: ps.Star.Name, AltDeg: ps.Horiz.AltDeg, Visible: ps.Visible}
			if ps.Visible {
				az := ps.Horiz.AzDeg
				sj.AzDeg = &az
				sj.Point = &pointJSON{X: ps.Point.X, Y: ps.Point.Y}
			}
			cj.Stars[i] = sj
		}
		out.Constellations = append(out.Constellations, cj)
	}
	writeJSON(w, http.StatusOK, out)
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

type readingJSON struct {
	Key     string      `json:"key"`
	Name    string      `json:"name"`
	Unit    string      `json:"unit,omitempty"`
	State   string      `json:"state"`
	Display string      `json:"display,omitempty"`
	Message string      `json:"message,omitempty"`
	Value   interface{} `json:"value,omitempty"`
}

func toReadingJSON(t sensor.Type, r sensor.Result) readingJSON {
	out := readingJSON{
		Key:     t.Key(),
		Name:    t.DisplayName(),
		Unit:    t.Unit(),
		State:   r.State.String(),
		Message: r.Message,
	}
	if !r.IsData() {
		return out
	}
	out.Display = t.Format(r.Reading)
	switch v := r.Reading.(type) {
	case sensor.Scalar:
		out.Value = map[string]float64{"value": v.Value}
	case sensor.Vector3:
		out.Value = map[string]float64{"x": v.X, "y": v.Y, "z": v.Z, "magnitude": v.Magnitude()}
	case sensor.Location:
		loc := map[string]float64{"lat": v.Latitude, "lon": v.Longitude}
		if v.HasAltitude {
			loc["altitude"] = v.Altitude
		}
		if v.HasAccuracy {
			loc["accuracy"] = v.Accuracy
		}
		out.Value = loc
	}
	return out
}

// parseSensorType accepts a preference key ("show_light") or its suffix
// ("light").
func parseSensorType(key string) (sensor.Type, bool) {
	key = strings.ToLower(key)
	if t, ok := sensor.TypeFromKey(key); ok {
		return t, true
	}
	return sensor.TypeFromKey("show_" + key)
}

func (s *Server) read(ctx context.Context, t sensor.Type) sensor.Result {
	ctx, cancel := context.WithTimeout(ctx, s.deps.ReadTimeout)
	defer cancel()
	return s.deps.Sensors.Read(ctx, t)
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	types := s.deps.Visibility.VisibleTypes()
	out := make([]readingJSON, len(types))

	g, ctx := errgroup.WithContext(r.Context())
	for i, t := range types {
		g.Go(func() error {
			out[i] = toReadingJSON(t, s.read(ctx, t))
			return nil
		})
	}
	g.Wait()

	writeJSON(w, http.StatusOK, map[string]interface{}{"sensors": out})
}

func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	t, ok := parseSensorType(mux.Vars(r)["key"])
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown sensor type")
		return
	}
	writeJSON(w, http.StatusOK, toReadingJSON(t, s.read(r.Context(), t)))
}

type weatherJSON struct {
	Phase   string      `json:"phase"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.deps.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather not configured")
		return
	}
	st := s.deps.Weather.State()
	out := weatherJSON{Phase: st.Phase.String(), Message: st.Message}
	if st.Phase == state.WeatherSuccess {
		out.Data = st.Data
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeatherRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather not configured")
		return
	}
	s.deps.Weather.Refresh()
	s.handleWeather(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Search == nil {
		writeError(w, http.StatusServiceUnavailable, "search not configured")
		return
	}
	q := search.TrimQuery(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}

	places, err := s.deps.Search.Search(r.Context(), q)
	if err != nil {
		s.log.Warn("search %q: %v", q, err)
		status := http.StatusBadGateway
		var se *search.StatusError
		if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err.Error())
		return
	}
	if places == nil {
		places = []search.Place{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"query": q, "places": places})
}

func (s *Server) handleVisibilityAll(w http.ResponseWriter, r *http.Request) {
	all := s.deps.Visibility.All()
	out := make(map[string]bool, len(all))
	for t, v := range all {
		out[t.Key()] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVisibilityGet(w http.ResponseWriter, r *http.Request) {
	t, ok := parseSensorType(mux.Vars(r)["key"])
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown sensor type")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"key": t.Key(), "visible": s.deps.Visibility.IsVisible(t)})
}

func (s *Server) handleVisibilityPut(w http.ResponseWriter, r *http.Request) {
	t, ok := parseSensorType(mux.Vars(r)["key"])
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown sensor type")
		return
	}
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Visible == nil {
		writeError(w, http.StatusBadRequest, `body must be {"visible": true|false}`)
		return
	}
	if err := s.deps.Visibility.SetVisible(t, *body.Visible); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save preference: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"key": t.Key(), "visible": *body.Visible})
}

func (s *Server) handleVisibilityReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Visibility.ResetToDefaults(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("reset preferences: %v", err))
		return
	}
	s.handleVisibilityAll(w, r)
}
