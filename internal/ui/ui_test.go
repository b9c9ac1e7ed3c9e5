package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/device"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
	"github.com/litescript/alkaid/internal/weather"
)

type stubWeather struct {
	key string
}

func (s *stubWeather) HasAPIKey() bool             { return s.key != "" }
func (s *stubWeather) SaveAPIKey(key string) error { s.key = key; return nil }
func (s *stubWeather) RemoveAPIKey() error         { s.key = ""; return nil }
func (s *stubWeather) ByCoordinates(context.Context, float64, float64) weather.Result {
	return weather.Result{Kind: weather.KindError, Message: "unused"}
}

type fixture struct {
	deps Deps
	sim  *device.Simulator
	vis  *prefs.Visibility
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := device.DefaultConfig()
	cfg.SampleInterval = 5 * time.Millisecond
	cfg.LocationInterval = 5 * time.Millisecond
	sim := device.New(cfg, nil)

	reg := sensor.NewRegistry(sim, sim, nil)
	vis := prefs.NewVisibility(prefs.NewMemoryStore(), nil, nil)
	gps, _ := reg.Source(sensor.GPS)
	places := func(ctx context.Context, q string) ([]search.Place, error) {
		return []search.Place{{DisplayName: "Queenstown, New Zealand", Lat: -45.03, Lon: 168.66, Type: "town"}}, nil
	}

	return &fixture{
		sim: sim,
		vis: vis,
		deps: Deps{
			Sensors:    reg,
			Home:       state.NewHome(gps, vis, nil),
			Visibility: vis,
			Sky:        state.NewSky(gps, astro.Observer{LatDeg: 37.77, LonDeg: -122.42, Name: "SF"}, nil),
			Weather:    state.NewWeather(&stubWeather{}, gps, nil),
			Map: state.NewMap(gps, prefs.NewMap(prefs.NewMemoryStore(), nil, nil), places,
				state.MapOptions{Debounce: 5 * time.Millisecond}, nil),
			Now: func() time.Time { return time.Date(2024, 12, 21, 3, 0, 0, 0, time.UTC) },
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m, _ = update(t, m, key(k))
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_ViewSwitching(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(ctx, f.deps)
	assert.Equal(t, "Initializing...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, ViewSensors, m.ActiveView())
	assert.Contains(t, m.View(), "Waiting for location")

	m = press(t, m, "2")
	assert.Equal(t, ViewSky, m.ActiveView())
	assert.Contains(t, m.View(), "Night Sky")

	m = press(t, m, "tab")
	assert.Equal(t, ViewMap, m.ActiveView())
	m = press(t, m, "shift+tab", "shift+tab", "shift+tab")
	assert.Equal(t, ViewSettings, m.ActiveView())
	assert.Contains(t, m.View(), "Sensor Visibility")

	m = press(t, m, "4")
	assert.Equal(t, ViewWeather, m.ActiveView())
	assert.Contains(t, m.View(), "Checking API key")

	_, cmd := update(t, m, key("q"))
	assert.True(t, isQuit(cmd))
}

func TestModel_SensorCardsFollowVisibleList(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	m := New(ctx, f.deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = update(t, m, HomeUpdateMsg{State: state.HomeState{
		GPS:            sensor.Loading(),
		VisibleSensors: []sensor.Type{sensor.Light, sensor.Humidity},
	}})
	require.Equal(t, 2, m.cards.open())
	require.Eventually(t, func() bool { return f.sim.Active() == 2 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 10 && !m.sensors.results[sensor.Light].IsData(); i++ {
		m, _ = update(t, m, m.cards.next(sensor.Light)())
	}
	require.True(t, m.sensors.results[sensor.Light].IsData())
	out := m.View()
	assert.Contains(t, out, "Light Sensor")
	assert.Contains(t, out, "lx")

	m, _ = update(t, m, HomeUpdateMsg{State: state.HomeState{
		GPS:            sensor.Loading(),
		VisibleSensors: []sensor.Type{sensor.Light},
	}})
	assert.Equal(t, 1, m.cards.open())
	require.Eventually(t, func() bool { return f.sim.Active() == 1 }, time.Second, 5*time.Millisecond)

	// A result from a card that was closed is dropped.
	m, _ = update(t, m, SensorMsg{Type: sensor.Humidity, Result: sensor.Error("stale")})
	_, ok := m.sensors.results[sensor.Humidity]
	assert.False(t, ok)
	assert.NotContains(t, m.View(), "Humidity")

	cancel()
	require.Eventually(t, func() bool { return f.sim.Active() == 0 }, time.Second, 5*time.Millisecond)
}

func TestModel_MapSearchOwnsKeyboard(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		f.deps.Map.Wait()
	}()
	f.deps.Map.Start(ctx)

	m := New(ctx, f.deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = press(t, m, "3", "/")
	require.True(t, m.capturing())

	m, cmd := update(t, m, key("q"))
	assert.False(t, isQuit(cmd), "q is text while searching")
	assert.Equal(t, ViewMap, m.ActiveView())
	m = press(t, m, "u", "e", "enter")
	assert.False(t, m.capturing())
	assert.Equal(t, "que", f.deps.Map.State().Query)

	require.Eventually(t, func() bool { return len(f.deps.Map.State().Results) == 1 }, time.Second, 5*time.Millisecond)
	m, _ = update(t, m, MapUpdateMsg{State: f.deps.Map.State()})
	assert.Contains(t, m.View(), "Queenstown")

	m = press(t, m, "enter")
	st := f.deps.Map.State()
	require.NotNil(t, st.Selected)
	assert.Equal(t, -45.03, st.Selected.Lat)

	m = press(t, m, "p", "-")
	st = f.deps.Map.State()
	assert.Equal(t, prefs.ProviderGoogle, st.Provider)
	assert.Equal(t, prefs.DefaultZoom-1, st.Zoom)

	_, cmd = update(t, m, key("ctrl+c"))
	assert.True(t, isQuit(cmd))
}

func TestModel_SettingsToggle(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(ctx, f.deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = press(t, m, "5", "space")
	assert.False(t, f.vis.IsVisible(sensor.Barometer))

	m = press(t, m, "down", "enter")
	assert.False(t, f.vis.IsVisible(sensor.Gyroscope))
	assert.Contains(t, m.View(), "[ ]")

	press(t, m, "R")
	for _, typ := range sensor.AllTypes() {
		assert.True(t, f.vis.IsVisible(typ), typ.String())
	}
}

func TestModel_StatusAndErrors(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New(ctx, f.deps)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, StatusMsg("config reloaded"))
	assert.Contains(t, m.View(), "config reloaded")

	m, _ = update(t, m, SendError(assert.AnError)())
	assert.Contains(t, m.View(), "ERROR: "+assert.AnError.Error())
}

func TestWeatherView(t *testing.T) {
	stub := &stubWeather{}
	w := state.NewWeather(stub, nil, nil)
	m := NewWeatherModel(w)
	assert.Contains(t, m.View(), "Checking API key")

	m = m.UpdateData(state.WeatherState{Phase: state.WeatherNoAPIKey})
	assert.Contains(t, m.View(), "alkaid apikey set")

	m = m.UpdateData(state.WeatherState{Phase: state.WeatherSuccess, Data: weather.DisplayData{
		Location: "London", Temperature: "12°C", Condition: "Clouds", Sunrise: "08:00",
	}})
	out := m.View()
	assert.Contains(t, out, "London")
	assert.Contains(t, out, "12°C")
	assert.Contains(t, out, "08:00")

	m = m.UpdateData(state.WeatherState{Phase: state.WeatherError, Message: "Invalid API key"})
	assert.Contains(t, m.View(), "Invalid API key")

	m, _ = m.Update(key("k"))
	require.True(t, m.Capturing())
	for _, k := range []string{"a", "b", "c"} {
		m, _ = m.Update(key(k))
	}
	assert.Contains(t, m.View(), "•••")
	assert.NotContains(t, m.View(), "abc")
	m, _ = m.Update(key("enter"))
	assert.False(t, m.Capturing())
	assert.Equal(t, "abc", stub.key)
	assert.Equal(t, state.WeatherWaitingForLocation, w.State().Phase)

	m.Update(key("x"))
	assert.Empty(t, stub.key)
	assert.Equal(t, state.WeatherNoAPIKey, w.State().Phase)
}

func TestTileXY(t *testing.T) {
	tests := []struct {
		lat, lon float64
		z        int
		x, y     int
	}{
		{51.5074, -0.1278, 10, 511, 340},
		{0, 0, 0, 0, 0},
		{0, 0, 1, 1, 1},
		{89.99, 179.99, 2, 3, 0},
		{-89.99, -180, 2, 0, 3},
	}
	for _, tt := range tests {
		x, y := TileXY(tt.lat, tt.lon, tt.z)
		assert.Equal(t, [2]int{tt.x, tt.y}, [2]int{x, y}, "%v,%v z%d", tt.lat, tt.lon, tt.z)
	}

	assert.Equal(t, "https://tile.openstreetmap.org/10/511/340.png", TileURL(prefs.ProviderOSM, 10, 511, 340))
	assert.Equal(t, "https://mt1.google.com/vt/lyrs=m&x=511&y=340&z=10", TileURL(prefs.ProviderGoogle, 10, 511, 340))
}

func TestRenderVisibilityPanel(t *testing.T) {
	all := map[sensor.Type]bool{}
	for _, typ := range sensor.AllTypes() {
		all[typ] = typ != sensor.Light
	}
	lines := strings.Split(RenderVisibilityPanel(all, 0), "\n")
	require.Len(t, lines, len(sensor.AllTypes()))
	assert.Contains(t, lines[0], "▶")
	assert.Contains(t, lines[0], "show_barometer")
	assert.Contains(t, lines[int(sensor.Light)], "[ ]")
	assert.Contains(t, lines[int(sensor.Humidity)], "[x]")

	for _, l := range strings.Split(RenderVisibilityPanel(all, -1), "\n") {
		assert.NotContains(t, l, "▶")
	}
}
