package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/alkaid/internal/state"
)

// WeatherModel shows the current weather at the device location.
type WeatherModel struct {
	w *state.Weather

	width    int
	height   int
	animTick int

	st state.WeatherState

	// API key entry
	editing bool
	input   string
	lastErr error
}

// NewWeatherModel creates the weather view.
func NewWeatherModel(w *state.Weather) WeatherModel {
	m := WeatherModel{w: w}
	if w != nil {
		m.st = w.State()
	}
	return m
}

// SetSize updates the viewport size.
func (m WeatherModel) SetSize(width, height int) WeatherModel {
	m.width = width
	m.height = height
	return m
}

// SetAnimTick advances the loading spinner.
func (m WeatherModel) SetAnimTick(tick int) WeatherModel {
	m.animTick = tick
	return m
}

// UpdateData replaces the weather state.
func (m WeatherModel) UpdateData(st state.WeatherState) WeatherModel {
	m.st = st
	return m
}

// Capturing reports whether the key entry box has the keyboard.
func (m WeatherModel) Capturing() bool {
	return m.editing
}

// Update handles messages.
func (m WeatherModel) Update(msg tea.Msg) (WeatherModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.w == nil {
		return m, nil
	}
	if m.editing {
		return m.updateInput(key), nil
	}

	switch key.String() {
	case "r":
		m.lastErr = nil
		m.w.Refresh()
	case "k":
		m.editing = true
		m.input = ""
	case "x":
		m.lastErr = m.w.RemoveAPIKey()
	}
	return m, nil
}

func (m WeatherModel) updateInput(key tea.KeyMsg) WeatherModel {
	switch key.Type {
	case tea.KeyEnter:
		m.editing = false
		m.lastErr = m.w.SaveAPIKey(m.input)
		m.input = ""
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.input += string(key.Runes)
	}
	return m
}

// View renders the weather view.
func (m WeatherModel) View() string {
	if m.w == nil {
		return dimStyle.Render("Weather unavailable")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Weather"))
	b.WriteString("\n")

	switch m.st.Phase {
	case state.WeatherCheckingAPIKey:
		b.WriteString(dimStyle.Render("  " + spinner(m.animTick) + " Checking API key..."))
	case state.WeatherNoAPIKey:
		b.WriteString(dimStyle.Render("  No OpenWeatherMap API key configured.\n  Press k to enter one, or run `alkaid apikey set`."))
	case state.WeatherWaitingForLocation:
		b.WriteString(dimStyle.Render("  " + spinner(m.animTick) + " Waiting for location..."))
	case state.WeatherLoading:
		b.WriteString(dimStyle.Render("  " + spinner(m.animTick) + " Loading weather..."))
	case state.WeatherSuccess:
		b.WriteString(renderWeatherData(m.st))
	case state.WeatherError:
		b.WriteString(errorStyle.Render("  " + m.st.Message))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Press r to retry."))
	}

	if m.editing {
		b.WriteString("\n\n  API key > " + valueStyle.Render(strings.Repeat("•", len([]rune(m.input)))) + "█")
	}
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + m.lastErr.Error()))
	}
	return b.String()
}

func renderWeatherData(st state.WeatherState) string {
	d := st.Data
	rows := [][2]string{
		{"Temperature", d.Temperature + "  (" + d.Condition + ")"},
		{"Feels like", d.FeelsLike},
		{"Range", d.TempRange},
		{"Humidity", d.Humidity},
		{"Pressure", d.Pressure},
		{"Wind", d.Wind},
		{"Gusts", d.Gust},
		{"Clouds", d.Cloudiness},
		{"Visibility", d.Visibility},
		{"Sunrise", d.Sunrise},
		{"Sunset", d.Sunset},
	}

	var b strings.Builder
	b.WriteString("  " + labelStyle.Render(d.Location))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("\n  %-12s %s", r[0], valueStyle.Render(r[1])))
	}
	b.WriteString("\n  " + dimStyle.Render("Updated "+d.LastUpdated))
	return b.String()
}
