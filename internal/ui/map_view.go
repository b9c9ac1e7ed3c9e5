package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/state"
)

// maxResults bounds the result list drawn under the search box.
const maxResults = 8

// MapModel shows the current location, the tile provider and place search.
type MapModel struct {
	mp *state.Map

	width  int
	height int

	st state.MapState

	editing bool
	input   string
	cursor  int
	lastErr error
}

// NewMapModel creates the map view.
func NewMapModel(mp *state.Map) MapModel {
	m := MapModel{mp: mp}
	if mp != nil {
		m.st = mp.State()
	}
	return m
}

// SetSize updates the viewport size.
func (m MapModel) SetSize(width, height int) MapModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the map state.
func (m MapModel) UpdateData(st state.MapState) MapModel {
	m.st = st
	if m.cursor >= len(st.Results) {
		m.cursor = max(0, len(st.Results)-1)
	}
	return m
}

// Capturing reports whether the search box has the keyboard.
func (m MapModel) Capturing() bool {
	return m.editing
}

// Update handles messages.
func (m MapModel) Update(msg tea.Msg) (MapModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.mp == nil {
		return m, nil
	}
	if m.editing {
		return m.updateInput(key), nil
	}

	switch key.String() {
	case "/":
		m.editing = true
		m.input = m.st.Query
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.st.Results)-1 {
			m.cursor++
		}
	case "enter":
		m.mp.Select(m.cursor)
	case "c", "esc":
		m.mp.ClearSelection()
	case "p":
		_, m.lastErr = m.mp.ToggleProvider()
	case "+", "=":
		m.lastErr = m.mp.SetZoom(math.Min(m.st.Zoom+1, prefs.MaxZoom))
	case "-":
		m.lastErr = m.mp.SetZoom(math.Max(m.st.Zoom-1, prefs.MinZoom))
	}
	return m, nil
}

func (m MapModel) updateInput(key tea.KeyMsg) MapModel {
	switch key.Type {
	case tea.KeyEnter:
		m.editing = false
		return m
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(key.Runes)
	default:
		return m
	}
	m.cursor = 0
	m.mp.Search(m.input)
	return m
}

// View renders the map view.
func (m MapModel) View() string {
	if m.mp == nil {
		return dimStyle.Render("Map unavailable")
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("Map"))
	b.WriteString("\n")
	b.WriteString(m.renderLocation())
	b.WriteString("\n")
	b.WriteString(m.renderTile())
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Search"))
	b.WriteString("\n")
	b.WriteString(m.renderSearch())

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + m.lastErr.Error()))
	}
	return b.String()
}

func (m MapModel) renderLocation() string {
	switch m.st.Phase {
	case state.LocationLoading:
		if m.st.Selected == nil {
			return dimStyle.Render("  Getting your location...")
		}
	case state.LocationError:
		if m.st.Selected == nil {
			return errorStyle.Render("  " + m.st.Message)
		}
	}

	lat, lon, _ := m.st.Center()
	label := "Current location"
	if m.st.Selected != nil {
		label = truncate(m.st.Selected.DisplayName, 60)
	}
	return fmt.Sprintf("  %s %s", labelStyle.Render(label), valueStyle.Render(fmt.Sprintf("%.6f, %.6f", lat, lon)))
}

func (m MapModel) renderTile() string {
	line := fmt.Sprintf("  %s %s  %s %.0f",
		labelStyle.Render("Provider"), valueStyle.Render(m.st.Provider.DisplayName()),
		labelStyle.Render("Zoom"), m.st.Zoom)
	lat, lon, ok := m.st.Center()
	if !ok {
		return line
	}
	x, y := TileXY(lat, lon, int(m.st.Zoom))
	return line + "\n  " + dimStyle.Render(TileURL(m.st.Provider, int(m.st.Zoom), x, y))
}

func (m MapModel) renderSearch() string {
	var b strings.Builder

	box := m.input
	if !m.editing {
		box = m.st.Query
	}
	if m.editing {
		b.WriteString("  > " + valueStyle.Render(box) + "█")
	} else if box == "" {
		b.WriteString(dimStyle.Render("  press / to search for a place"))
	} else {
		b.WriteString("  > " + dimStyle.Render(box))
	}

	if m.st.SearchErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + m.st.SearchErr))
		return b.String()
	}

	for i, p := range m.st.Results {
		if i >= maxResults {
			break
		}
		line := fmt.Sprintf("%-10s %s", truncate(p.Type, 10), truncate(p.DisplayName, max(20, m.width-20)))
		b.WriteString("\n")
		if i == m.cursor && !m.editing {
			b.WriteString(labelStyle.Render("  ▶ " + line))
		} else {
			b.WriteString(valueStyle.Render("    " + line))
		}
	}
	return b.String()
}

// TileXY returns the slippy-map tile containing lat/lon at zoom z.
func TileXY(lat, lon float64, z int) (int, int) {
	n := math.Exp2(float64(z))
	x := int(math.Floor((lon + 180) / 360 * n))
	latRad := lat * math.Pi / 180
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	last := int(n) - 1
	return min(max(x, 0), last), min(max(y, 0), last)
}

// TileURL fills the provider's URL template.
func TileURL(p prefs.Provider, z, x, y int) string {
	return strings.NewReplacer(
		"{z}", fmt.Sprint(z),
		"{x}", fmt.Sprint(x),
		"{y}", fmt.Sprint(y),
	).Replace(p.TileURL())
}
