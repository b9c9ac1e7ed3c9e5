package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/sensor"
)

// Visibility toggle colors
const (
	colorVisOn  = "#7CFC00" // Lawn green
	colorVisOff = "#444444" // Dark gray
)

// SettingsModel toggles which sensors appear on the sensors view.
type SettingsModel struct {
	vis *prefs.Visibility

	width   int
	height  int
	cursor  int
	lastErr error
}

// NewSettingsModel creates the settings view.
func NewSettingsModel(vis *prefs.Visibility) SettingsModel {
	return SettingsModel{vis: vis}
}

// SetSize updates the viewport size.
func (m SettingsModel) SetSize(width, height int) SettingsModel {
	m.width = width
	m.height = height
	return m
}

// Update handles messages.
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.vis == nil {
		return m, nil
	}

	types := sensor.AllTypes()
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(types)-1 {
			m.cursor++
		}
	case " ", "enter":
		t := types[m.cursor]
		m.lastErr = m.vis.SetVisible(t, !m.vis.IsVisible(t))
	case "R":
		m.lastErr = m.vis.ResetToDefaults()
	}
	return m, nil
}

// View renders the settings view. Visibility is read live from the
// preference store.
func (m SettingsModel) View() string {
	if m.vis == nil {
		return dimStyle.Render("Preferences unavailable")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sensor Visibility"))
	b.WriteString("\n")
	b.WriteString(RenderVisibilityPanel(m.vis.All(), m.cursor))
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + m.lastErr.Error()))
	}
	return b.String()
}

// RenderVisibilityPanel renders one line per sensor type in display order,
// marking the row at cursor. A negative cursor marks nothing.
//
//	▶ [x] Barometer        show_barometer
//	  [ ] Gyroscope        show_gyroscope
func RenderVisibilityPanel(visible map[sensor.Type]bool, cursor int) string {
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorVisOn))
	offStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorVisOff))

	lines := make([]string, 0, len(visible))
	for i, t := range sensor.AllTypes() {
		mark, style := "[ ]", offStyle
		if visible[t] {
			mark, style = "[x]", onStyle
		}
		prefix := "  "
		if i == cursor {
			prefix = "▶ "
		}
		name := fmt.Sprintf("%-16s", t.DisplayName())
		if i == cursor {
			name = labelStyle.Render(name)
		}
		lines = append(lines, "  "+prefix+style.Render(mark)+" "+name+" "+dimStyle.Render(t.Key()))
	}
	return strings.Join(lines, "\n")
}
