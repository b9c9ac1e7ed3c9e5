package astro

import (
	"math"
	"testing"
	"time"
)

type recordingCanvas struct {
	markers []Point
	lines   [][2]Point
	texts   []string
	textAt  []Point
}

func (c *recordingCanvas) Marker(p Point)         { c.markers = append(c.markers, p) }
func (c *recordingCanvas) Line(a, b Point)        { c.lines = append(c.lines, [2]Point{a, b}) }
func (c *recordingCanvas) Text(p Point, s string) { c.texts = append(c.texts, s); c.textAt = append(c.textAt, p) }

func visible(x, y float64) ProjectedStar {
	return ProjectedStar{Point: Point{X: x, Y: y}, Visible: true}
}

func TestProjectHorizontal(t *testing.T) {
	const w, h = 200.0, 100.0

	tests := []struct {
		name string
		in   Horizontal
		want Point
	}{
		{"zenith at centre", Horizontal{AzDeg: 0, AltDeg: 90}, Point{100, 50}},
		{"horizon az 0", Horizontal{AzDeg: 0, AltDeg: 0}, Point{150, 50}},
		{"horizon az 90", Horizontal{AzDeg: 90, AltDeg: 0}, Point{100, 100}},
		{"45° alt az 180", Horizontal{AzDeg: 180, AltDeg: 45}, Point{75, 50}},
		{"below horizon still projects", Horizontal{AzDeg: 0, AltDeg: -30}, Point{160, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectHorizontal(tt.in, w, h)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("projectHorizontal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProject_NoHorizonClipping(t *testing.T) {
	// From latitude 60°N a star at −80° dec never rises.
	obs := Observer{LatDeg: 60, LonDeg: 0}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, ok := Project(Star{RAHours: 3, DecDeg: -80}, obs, at, 400, 400)
	if !ok {
		t.Fatal("Project() ok = false for a star below the horizon")
	}
	if r := math.Hypot(p.X-200, p.Y-200); r <= 200 {
		t.Errorf("below-horizon star radius = %v, want > 200", r)
	}
}

func TestDrawConstellation_AllVisible(t *testing.T) {
	pc := ProjectedConstellation{
		Name:        "Tri",
		Stars:       []ProjectedStar{visible(0, 0), visible(10, 0), visible(0, 10)},
		Centroid:    Point{10.0 / 3, 10.0 / 3},
		HasCentroid: true,
	}
	var cv recordingCanvas
	DrawConstellation(&cv, pc)

	if len(cv.markers) != 3 {
		t.Errorf("markers = %d, want 3", len(cv.markers))
	}
	if len(cv.lines) != 3 {
		t.Fatalf("lines = %d, want 3 (two edges + closing)", len(cv.lines))
	}
	closing := cv.lines[2]
	if closing[0] != (Point{0, 10}) || closing[1] != (Point{0, 0}) {
		t.Errorf("closing line = %v, want last→first", closing)
	}
	if len(cv.texts) != 1 || cv.texts[0] != "Tri" {
		t.Errorf("labels = %v, want [Tri]", cv.texts)
	}
}

func TestDrawConstellation_SkipsUndefinedStars(t *testing.T) {
	hidden := Point{X: -1, Y: -1}
	pc := ProjectedConstellation{
		Name: "Gap",
		Stars: []ProjectedStar{
			visible(1, 1),
			{Point: hidden, Visible: false},
			visible(5, 5),
			visible(9, 1),
		},
		Centroid:    Point{5, 7.0 / 3},
		HasCentroid: true,
	}
	var cv recordingCanvas
	DrawConstellation(&cv, pc)

	if len(cv.markers) != 3 {
		t.Errorf("markers = %d, want 3", len(cv.markers))
	}
	// Only 2→3 and the closing 3→0 survive.
	want := [][2]Point{{{5, 5}, {9, 1}}, {{9, 1}, {1, 1}}}
	if len(cv.lines) != len(want) {
		t.Fatalf("lines = %v, want %v", cv.lines, want)
	}
	for i, l := range cv.lines {
		if l != want[i] {
			t.Errorf("line %d = %v, want %v", i, l, want[i])
		}
		if l[0] == hidden || l[1] == hidden {
			t.Errorf("line touches the undefined star: %v", l)
		}
	}
}

func TestDrawConstellation_TwoStarsNoClosingLine(t *testing.T) {
	pc := ProjectedConstellation{
		Name:        "Pair",
		Stars:       []ProjectedStar{visible(0, 0), visible(4, 4)},
		Centroid:    Point{2, 2},
		HasCentroid: true,
	}
	var cv recordingCanvas
	DrawConstellation(&cv, pc)
	// Closing needs three stars; the pair is drawn as its single edge.
	if len(cv.lines) != 1 || cv.lines[0] != [2]Point{{0, 0}, {4, 4}} {
		t.Errorf("lines = %v, want the single edge", cv.lines)
	}
}

func TestDrawConstellation_NothingDrawable(t *testing.T) {
	pc := ProjectedConstellation{
		Name:  "Hidden",
		Stars: []ProjectedStar{{}, {}, {}},
	}
	var cv recordingCanvas
	DrawConstellation(&cv, pc)
	if len(cv.markers)+len(cv.lines)+len(cv.texts) != 0 {
		t.Errorf("drew %d markers, %d lines, %d labels; want nothing",
			len(cv.markers), len(cv.lines), len(cv.texts))
	}
}

func TestProjectConstellation_CentroidOverDrawablePoints(t *testing.T) {
	obs := Observer{LatDeg: 37.7749, LonDeg: -122.4194}
	at := time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)
	orion, ok := FindConstellation("Orion")
	if !ok {
		t.Fatal("Orion missing from catalog")
	}

	pc := ProjectConstellation(orion, obs, at, 800, 600)
	if !pc.HasCentroid {
		t.Fatal("expected a centroid")
	}
	var sx, sy float64
	for _, s := range pc.Stars {
		sx += s.Point.X
		sy += s.Point.Y
	}
	n := float64(len(pc.Stars))
	if math.Abs(pc.Centroid.X-sx/n) > 1e-9 || math.Abs(pc.Centroid.Y-sy/n) > 1e-9 {
		t.Errorf("centroid = %+v, want mean (%v, %v)", pc.Centroid, sx/n, sy/n)
	}
}

func TestRender_DoesNotMutateInputs(t *testing.T) {
	cat := Catalog()
	before := Catalog()
	obs := Observer{LatDeg: -33.87, LonDeg: 151.21, Name: "Sydney"}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var cv recordingCanvas
	Render(&cv, cat, obs, at, 120, 60)

	if len(cv.texts) != len(cat) {
		t.Errorf("labels = %d, want one per constellation (%d)", len(cv.texts), len(cat))
	}
	for i := range cat {
		if cat[i].Name != before[i].Name || len(cat[i].Stars) != len(before[i].Stars) {
			t.Fatalf("constellation %d changed", i)
		}
		for j := range cat[i].Stars {
			if cat[i].Stars[j] != before[i].Stars[j] {
				t.Errorf("star %s changed", cat[i].Stars[j].Name)
			}
		}
	}
	if obs.Name != "Sydney" || obs.LatDeg != -33.87 {
		t.Errorf("observer changed: %+v", obs)
	}
}
