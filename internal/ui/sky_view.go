package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/state"
)

const (
	// Rotation step and animation
	rotateStep    = 45.0
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	glyphStar    = '✶'
	glyphLine    = '·'
	glyphHorizon = '˙'

	colorStar     = "255"
	colorLine     = "60"
	colorLabel    = "135"
	colorHorizon  = "238"
	colorCardinal = "252"
	colorEmpty    = "236"
)

// LabelMode controls whether constellation names are drawn.
type LabelMode int

const (
	LabelAll  LabelMode = iota // Every constellation with a drawable star
	LabelNone                  // No labels
)

// SkyViewModel renders the constellation map for the current observer.
type SkyViewModel struct {
	sky *state.Sky
	now func() time.Time

	width  int
	height int

	at     time.Time
	offset time.Duration // hours stepped away from now

	// Rotation of the dome, degrees clockwise
	rot         float64
	animating   bool
	animStartAt time.Time
	animFrom    float64
	animTo      float64

	labelMode LabelMode
}

// NewSkyViewModel creates a new sky view model.
func NewSkyViewModel(sky *state.Sky, now func() time.Time) SkyViewModel {
	if now == nil {
		now = time.Now
	}
	return SkyViewModel{sky: sky, now: now, at: now()}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// SetTime moves the clock the view renders for.
func (m SkyViewModel) SetTime(t time.Time) SkyViewModel {
	m.at = t
	return m
}

// animTickMsg is sent during rotation animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left":
			return m.rotateTo(m.targetRot() - rotateStep)
		case "right":
			return m.rotateTo(m.targetRot() + rotateStep)
		case "0":
			return m.rotateTo(0)
		case "+", "=":
			m.offset += time.Hour
		case "-":
			m.offset -= time.Hour
		case ".":
			m.offset = 0
		case "l":
			m.labelMode = (m.labelMode + 1) % 2
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) targetRot() float64 {
	if m.animating {
		return m.animTo
	}
	return m.rot
}

func (m SkyViewModel) rotateTo(target float64) (SkyViewModel, tea.Cmd) {
	m.animating = true
	m.animFrom = m.rot
	m.animTo = target
	m.animStartAt = time.Now()
	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	t := float64(time.Since(m.animStartAt)) / float64(animDuration)
	if t >= 1.0 {
		m.animating = false
		m.rot = normalizeAngle(m.animTo)
		m.animTo = m.rot
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)
	m.rot = lerpAngle(m.animFrom, m.animTo, t)
	return m, animTick()
}

// renderTime is the instant the dome is drawn for.
func (m SkyViewModel) renderTime() time.Time {
	return m.at.Add(m.offset)
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.sky == nil {
		return dimStyle.Render("Sky view unavailable")
	}
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}

	// Reserve lines for header and status
	rows := m.height - 3
	f := m.frame(m.width, rows)

	var b strings.Builder
	b.WriteString(m.renderHeader(f))
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(f, m.width, rows).String())
	b.WriteString("\n")
	b.WriteString(m.renderStatus(f))
	return b.String()
}

// frame projects for a cols×rows grid.
func (m SkyViewModel) frame(cols, rows int) state.Frame {
	w, h := viewport(cols, rows)
	return m.sky.Frame(m.renderTime(), w, h)
}

// viewport sizes the projection for a cols×rows grid. Terminal cells are
// about twice as tall as wide, so there are two units per row to keep the
// horizon round. One unit is shaved off each axis so the horizon's far
// edge still lands inside the grid.
func viewport(cols, rows int) (float64, float64) {
	return float64(cols - 1), float64(rows*2 - 1)
}

func (m SkyViewModel) renderHeader(f state.Frame) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	name := f.Observer.Name
	if name == "" {
		name = "observer"
	}
	src := "no fix, using default"
	if f.HasFix {
		src = "GPS"
	}
	return titleStyle.Render("Night Sky") + dimStyle.Render(fmt.Sprintf("  %s %.2f°, %.2f° (%s)", name, f.Observer.LatDeg, f.Observer.LonDeg, src))
}

func (m SkyViewModel) renderStatus(f state.Frame) string {
	when := f.Time.Local().Format("2006-01-02 15:04 MST")
	if m.offset != 0 {
		when += fmt.Sprintf(" (%+dh)", int(m.offset.Hours()))
	}

	visible := 0
	for _, pc := range f.Constellations {
		for _, s := range pc.Stars {
			if s.Visible && s.Horiz.AltDeg > 0 {
				visible++
			}
		}
	}
	return dimStyle.Render(fmt.Sprintf("%s | sun %.1f° %s | %d stars above horizon | rotation %.0f°",
		when, f.SunAltDeg, f.Twilight, visible, normalizeAngle(m.rot)))
}

func (m SkyViewModel) renderSkyCanvas(f state.Frame, cols, rows int) *termCanvas {
	cv := newTermCanvas(cols, rows, f.Width, f.Height, m.rot)
	cv.labels = m.labelMode == LabelAll

	cv.drawHorizon()
	f.Draw(cv)
	for _, c := range []struct {
		label string
		az    float64
	}{{"N", 0}, {"E", 90}, {"S", 180}, {"W", 270}} {
		cv.cardinal(c.label, c.az)
	}
	return cv
}

// termCanvas is an astro.Canvas over a grid of terminal cells.
type termCanvas struct {
	cols, rows int
	vw, vh     float64 // viewport the points were projected into
	rot        float64
	labels     bool

	cells  [][]rune
	colors [][]lipgloss.Color
	marked [][]bool
}

func newTermCanvas(cols, rows int, vw, vh, rot float64) *termCanvas {
	cv := &termCanvas{
		cols:   cols,
		rows:   rows,
		vw:     vw,
		vh:     vh,
		rot:    rot,
		labels: true,
		cells:  make([][]rune, rows),
		colors: make([][]lipgloss.Color, rows),
		marked: make([][]bool, rows),
	}
	for y := 0; y < rows; y++ {
		cv.cells[y] = []rune(strings.Repeat(" ", cols))
		cv.colors[y] = make([]lipgloss.Color, cols)
		cv.marked[y] = make([]bool, cols)
		for x := range cv.colors[y] {
			cv.colors[y][x] = colorEmpty
		}
	}
	return cv
}

// cell maps a viewport point to a grid cell after rotating about the centre.
func (cv *termCanvas) cell(p astro.Point) (int, int, bool) {
	cx, cy := cv.vw/2, cv.vh/2
	dx, dy := p.X-cx, p.Y-cy
	if cv.rot != 0 {
		s, c := math.Sincos(cv.rot * math.Pi / 180)
		dx, dy = dx*c-dy*s, dx*s+dy*c
	}
	x := int(math.Floor(cx + dx))
	y := int(math.Floor((cy + dy) / 2))
	if x < 0 || x >= cv.cols || y < 0 || y >= cv.rows {
		return 0, 0, false
	}
	return x, y, true
}

func (cv *termCanvas) set(x, y int, r rune, color lipgloss.Color) {
	cv.cells[y][x] = r
	cv.colors[y][x] = color
}

// Marker implements astro.Canvas.
func (cv *termCanvas) Marker(p astro.Point) {
	x, y, ok := cv.cell(p)
	if !ok {
		return
	}
	cv.set(x, y, glyphStar, colorStar)
	cv.marked[y][x] = true
}

// Line implements astro.Canvas. Segments never overwrite a star.
func (cv *termCanvas) Line(a, b astro.Point) {
	// Sample at half-cell spacing in viewport units.
	n := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)/2) * 2))
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		x, y, ok := cv.cell(astro.Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)})
		if !ok || cv.marked[y][x] {
			continue
		}
		cv.set(x, y, glyphLine, colorLine)
	}
}

// Text implements astro.Canvas. Labels are centred on p and skip stars.
func (cv *termCanvas) Text(p astro.Point, s string) {
	if !cv.labels {
		return
	}
	x, y, ok := cv.cell(p)
	if !ok {
		return
	}
	runes := []rune(s)
	start := x - len(runes)/2
	for i, r := range runes {
		cx := start + i
		if cx < 0 || cx >= cv.cols || cv.marked[y][cx] {
			continue
		}
		cv.set(cx, y, r, colorLabel)
	}
}

func (cv *termCanvas) horizonPoint(az float64) astro.Point {
	r := cv.vh / 2
	a := az * math.Pi / 180
	return astro.Point{X: cv.vw/2 + r*math.Cos(a), Y: cv.vh/2 + r*math.Sin(a)}
}

func (cv *termCanvas) drawHorizon() {
	for az := 0.0; az < 360; az += 2 {
		if x, y, ok := cv.cell(cv.horizonPoint(az)); ok {
			cv.set(x, y, glyphHorizon, colorHorizon)
		}
	}
}

func (cv *termCanvas) cardinal(label string, az float64) {
	if x, y, ok := cv.cell(cv.horizonPoint(az)); ok {
		cv.set(x, y, rune(label[0]), colorCardinal)
	}
}

// String renders the grid with colors.
func (cv *termCanvas) String() string {
	var b strings.Builder
	for y := 0; y < cv.rows; y++ {
		for x := 0; x < cv.cols; x++ {
			r := cv.cells[y][x]
			if r == ' ' {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(cv.colors[y][x]).Render(string(r)))
		}
		if y < cv.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// plain returns the grid without styling.
func (cv *termCanvas) plain() string {
	lines := make([]string, cv.rows)
	for y := range cv.cells {
		lines[y] = strings.TrimRight(string(cv.cells[y]), " ")
	}
	return strings.Join(lines, "\n")
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}

// RenderSky draws the constellations visible at t on a cols×rows grid, for
// output outside the TUI. color selects lipgloss styling over plain runes.
func RenderSky(sky *state.Sky, t time.Time, cols, rows int, color bool) string {
	m := NewSkyViewModel(sky, func() time.Time { return t })
	cv := m.renderSkyCanvas(m.frame(cols, rows), cols, rows)
	if color {
		return cv.String()
	}
	return cv.plain()
}
