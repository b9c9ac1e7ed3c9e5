package astro

import "time"

// Canvas receives draw calls from Render. Implementations decide how a
// marker, a line and a label look on their surface.
type Canvas interface {
	Marker(p Point)
	Line(a, b Point)
	Text(p Point, s string)
}

// Render draws each constellation as a closed figure: a marker per star,
// lines between consecutive stars, a closing line from the last star back to
// the first, and the name at the centroid. The closing line needs at least
// three stars; a two-star figure is its single edge, drawn once.
//
// Stars with an undefined azimuth are not drawn and neither is any line that
// touches them. Render only reads its inputs.
func Render(cv Canvas, constellations []Constellation, obs Observer, t time.Time, width, height float64) {
	for _, c := range constellations {
		DrawConstellation(cv, ProjectConstellation(c, obs, t, width, height))
	}
}

// DrawConstellation issues the draw calls for one projected constellation,
// following the closing rule described on Render.
func DrawConstellation(cv Canvas, pc ProjectedConstellation) {
	stars := pc.Stars
	for i, s := range stars {
		if !s.Visible {
			continue
		}
		cv.Marker(s.Point)
		if i > 0 && stars[i-1].Visible {
			cv.Line(stars[i-1].Point, s.Point)
		}
	}

	// With two stars the closing edge would retrace the only edge.
	if n := len(stars); n >= 3 && stars[0].Visible && stars[n-1].Visible {
		cv.Line(stars[n-1].Point, stars[0].Point)
	}

	if pc.HasCentroid {
		cv.Text(pc.Centroid, pc.Name)
	}
}
