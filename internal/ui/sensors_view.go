package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/alkaid/internal/sensor"
	"github.com/litescript/alkaid/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1)
)

const cardWidth = 26

// SensorsModel is the home view: the GPS widget and a card per visible
// sensor.
type SensorsModel struct {
	width   int
	height  int
	home    state.HomeState
	results map[sensor.Type]sensor.Result
}

// NewSensorsModel creates the sensors view.
func NewSensorsModel() SensorsModel {
	return SensorsModel{home: state.HomeState{GPS: sensor.Loading()}}
}

// SetSize updates the viewport size.
func (m SensorsModel) SetSize(width, height int) SensorsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the panel state and card results.
func (m SensorsModel) UpdateData(home state.HomeState, results map[sensor.Type]sensor.Result) SensorsModel {
	m.home = home
	m.results = results
	return m
}

// UpdateResults replaces the card results.
func (m SensorsModel) UpdateResults(results map[sensor.Type]sensor.Result) SensorsModel {
	m.results = results
	return m
}

// Update handles messages. The view has no key bindings of its own.
func (m SensorsModel) Update(msg tea.Msg) (SensorsModel, tea.Cmd) {
	return m, nil
}

// View renders the sensors view.
func (m SensorsModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Location"))
	b.WriteString("\n")
	b.WriteString(renderGPS(m.home.GPS))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Sensors"))
	b.WriteString("\n")
	if len(m.home.VisibleSensors) == 0 {
		b.WriteString(dimStyle.Render("  No sensors visible. Enable some in Settings [5]."))
		return b.String()
	}

	perRow := 1
	if m.width > 0 {
		perRow = max(1, m.width/(cardWidth+4))
	}

	var rows []string
	var row []string
	for _, t := range m.home.VisibleSensors {
		r, ok := m.results[t]
		if !ok {
			r = sensor.Loading()
		}
		row = append(row, renderCard(t, r))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return b.String()
}

func renderGPS(r sensor.Result) string {
	switch {
	case r.IsLoading():
		return dimStyle.Render("  Waiting for location...")
	case r.IsError():
		return errorStyle.Render("  " + r.Message)
	}
	loc, ok := r.Location()
	if !ok {
		return dimStyle.Render("  No fix")
	}
	lines := []string{
		fmt.Sprintf("  %s %s", labelStyle.Render("Position"), valueStyle.Render(loc.FormatLatLng())),
		fmt.Sprintf("  %s %s", labelStyle.Render("Altitude"), valueStyle.Render(loc.FormatAltitude())),
		fmt.Sprintf("  %s %s", labelStyle.Render("Accuracy"), valueStyle.Render(loc.FormatAccuracy())),
	}
	return strings.Join(lines, "\n")
}

func renderCard(t sensor.Type, r sensor.Result) string {
	var body string
	switch {
	case r.IsLoading():
		body = dimStyle.Render("Loading...")
	case r.IsError():
		body = errorStyle.Render(truncate(r.Message, cardWidth))
	default:
		body = valueStyle.Render(truncate(t.Format(r.Reading), cardWidth))
	}
	return cardStyle.Width(cardWidth).Render(labelStyle.Render(t.DisplayName()) + "\n" + body)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
