// Package ui implements the Bubble Tea terminal interface.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
	"github.com/litescript/alkaid/internal/version"
)

// ViewMode represents the current view.
type ViewMode int

const (
	ViewSensors ViewMode = iota
	ViewSky
	ViewMap
	ViewWeather
	ViewSettings
	viewCount
)

var viewNames = [...]string{"Sensors", "Sky", "Map", "Weather", "Settings"}

func (v ViewMode) String() string {
	if v < 0 || v >= viewCount {
		return "Unknown"
	}
	return viewNames[v]
}

// Messages
type (
	// TickMsg drives the clock and sky redraw.
	TickMsg time.Time

	// AnimTickMsg drives the spinner.
	AnimTickMsg time.Time

	// HomeUpdateMsg carries a new sensors panel state.
	HomeUpdateMsg struct {
		State state.HomeState
	}

	// WeatherUpdateMsg carries a new weather panel state.
	WeatherUpdateMsg struct {
		State state.WeatherState
	}

	// MapUpdateMsg carries a new map panel state.
	MapUpdateMsg struct {
		State state.MapState
	}

	// ObserverUpdateMsg reports a new sky observer position.
	ObserverUpdateMsg struct {
		Observer astro.Observer
	}

	// SensorMsg is one result from a sensor card's stream.
	SensorMsg struct {
		Type   sensor.Type
		Result sensor.Result
		stream *sensor.Stream
	}

	// StatusMsg shows a transient line under the footer.
	StatusMsg string

	// ErrorMsg reports an error to the status line.
	ErrorMsg struct {
		Error error
	}
)

// Deps are the state containers the views render.
type Deps struct {
	Sensors    *sensor.Registry
	Home       *state.Home
	Visibility *prefs.Visibility
	Sky        *state.Sky
	Weather    *state.Weather
	Map        *state.Map
	Log        *logging.Logger
	// RefreshInterval is the clock tick; zero means one second.
	RefreshInterval time.Duration
	Now             func() time.Time
}

// Model is the main Bubble Tea model.
type Model struct {
	ctx  context.Context
	deps Deps
	log  *logging.Logger

	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	animTick  int
	statusMsg string
	lastErr   error

	homeCh     <-chan state.HomeState
	weatherCh  <-chan state.WeatherState
	mapCh      <-chan state.MapState
	observerCh <-chan astro.Observer

	cards *cardSet

	sensors  SensorsModel
	sky      SkyViewModel
	mapView  MapModel
	weather  WeatherModel
	settings SettingsModel
}

// New creates the root model. Subscriptions and sensor card streams live
// until ctx is done.
func New(ctx context.Context, d Deps) Model {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.RefreshInterval <= 0 {
		d.RefreshInterval = time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	m := Model{
		ctx:      ctx,
		deps:     d,
		log:      d.Log.With("component", "ui"),
		viewMode: ViewSensors,
		cards:    newCardSet(ctx, d.Sensors),
		sensors:  NewSensorsModel(),
		sky:      NewSkyViewModel(d.Sky, d.Now),
		mapView:  NewMapModel(d.Map),
		weather:  NewWeatherModel(d.Weather),
		settings: NewSettingsModel(d.Visibility),
	}
	if d.Home != nil {
		m.homeCh = d.Home.Subscribe(ctx)
	}
	if d.Weather != nil {
		m.weatherCh = d.Weather.Subscribe(ctx)
	}
	if d.Map != nil {
		m.mapCh = d.Map.Subscribe(ctx)
	}
	if d.Sky != nil {
		m.observerCh = d.Sky.Subscribe(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		animTickCmd(),
		listen(m.homeCh, func(s state.HomeState) tea.Msg { return HomeUpdateMsg{State: s} }),
		listen(m.weatherCh, func(s state.WeatherState) tea.Msg { return WeatherUpdateMsg{State: s} }),
		listen(m.mapCh, func(s state.MapState) tea.Msg { return MapUpdateMsg{State: s} }),
		listen(m.observerCh, func(o astro.Observer) tea.Msg { return ObserverUpdateMsg{Observer: o} }),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Text entry in the map and weather views owns the keyboard.
		if m.capturing() {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, m.updateActiveView(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "2", "3", "4", "5":
			m.viewMode = ViewMode(msg.String()[0] - '1')
			return m, nil
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount
			return m, nil
		case "shift+tab":
			m.viewMode = (m.viewMode + viewCount - 1) % viewCount
			return m, nil
		}
		cmds = append(cmds, m.updateActiveView(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := m.height - 6
		m.sensors = m.sensors.SetSize(m.width, contentHeight)
		m.sky = m.sky.SetSize(m.width, contentHeight)
		m.mapView = m.mapView.SetSize(m.width, contentHeight)
		m.weather = m.weather.SetSize(m.width, contentHeight)
		m.settings = m.settings.SetSize(m.width, contentHeight)

	case TickMsg:
		cmds = append(cmds, m.tickCmd())
		m.sky = m.sky.SetTime(time.Time(msg))

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
		m.weather = m.weather.SetAnimTick(m.animTick)

	case HomeUpdateMsg:
		cmds = append(cmds, listen(m.homeCh, func(s state.HomeState) tea.Msg { return HomeUpdateMsg{State: s} }))
		cmds = append(cmds, m.cards.sync(msg.State.VisibleSensors)...)
		m.sensors = m.sensors.UpdateData(msg.State, m.cards.results())

	case SensorMsg:
		if m.cards.accept(msg) {
			cmds = append(cmds, m.cards.next(msg.Type))
			m.sensors = m.sensors.UpdateResults(m.cards.results())
		}

	case WeatherUpdateMsg:
		cmds = append(cmds, listen(m.weatherCh, func(s state.WeatherState) tea.Msg { return WeatherUpdateMsg{State: s} }))
		m.weather = m.weather.UpdateData(msg.State)

	case MapUpdateMsg:
		cmds = append(cmds, listen(m.mapCh, func(s state.MapState) tea.Msg { return MapUpdateMsg{State: s} }))
		m.mapView = m.mapView.UpdateData(msg.State)

	case ObserverUpdateMsg:
		cmds = append(cmds, listen(m.observerCh, func(o astro.Observer) tea.Msg { return ObserverUpdateMsg{Observer: o} }))
		m.sky = m.sky.SetTime(m.deps.Now())

	case StatusMsg:
		m.statusMsg = string(msg)

	case ErrorMsg:
		m.lastErr = msg.Error
		if msg.Error != nil {
			m.log.Warn("%v", msg.Error)
		}

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) capturing() bool {
	switch m.viewMode {
	case ViewMap:
		return m.mapView.Capturing()
	case ViewWeather:
		return m.weather.Capturing()
	}
	return false
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewSensors:
		m.sensors, cmd = m.sensors.Update(msg)
	case ViewSky:
		m.sky, cmd = m.sky.Update(msg)
	case ViewMap:
		m.mapView, cmd = m.mapView.Update(msg)
	case ViewWeather:
		m.weather, cmd = m.weather.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewSensors:
		content = m.sensors.View()
	case ViewSky:
		content = m.sky.View()
	case ViewMap:
		content = m.mapView.View()
	case ViewWeather:
		content = m.weather.View()
	case ViewSettings:
		content = m.settings.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	return b.String()
}

// renderTitle draws the product name with the truecolor gradient.
func (m Model) renderTitle() string {
	title := []rune("  ✦ A L K A I D")
	var b strings.Builder
	for col, r := range title {
		color := gradientColor(col, 0, len(title), 1)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(string(r)))
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  sensors · sky · weather | v%s", version.Version)))
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue to purple to magenta to pink, fading toward the bottom row.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	switch {
	case xRatio < 0.33:
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	case xRatio < 0.66:
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	default:
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	fade := 1.0 - yRatio*0.5
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*fade), clampByte(g*fade), clampByte(b*fade))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}

func (m Model) renderTabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	parts := make([]string, 0, viewCount)
	for i := ViewMode(0); i < viewCount; i++ {
		tab := fmt.Sprintf("[%d] %s", i+1, i)
		if i == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinner(tick int) string {
	return spinnerFrames[tick%len(spinnerFrames)]
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	var status string
	if m.lastErr != nil {
		status = errStyle.Render("ERROR: " + m.lastErr.Error())
	} else {
		status = accentStyle.Render(spinner(m.animTick)) + dimStyle.Render(" "+m.deps.Now().Format("15:04:05"))
	}

	var help string
	switch m.viewMode {
	case ViewSky:
		help = "←/→: rotate | +/-: hour | .: now | l: labels"
	case ViewMap:
		help = "/: search | ↑↓ enter: pick | c: clear | p: provider | +/-: zoom"
	case ViewWeather:
		help = "r: refresh | k: set key | x: remove key"
	case ViewSettings:
		help = "↑↓: navigate | space: toggle | R: reset"
	default:
		help = "tab: switch view | q: quit"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// ActiveView returns the view being shown.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.deps.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// listen waits for the next value on ch. A closed or nil channel yields no
// message.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}
