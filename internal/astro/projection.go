package astro

import (
	"math"
	"time"
)

// Point is a screen position in viewport units.
type Point struct {
	X, Y float64
}

// Project maps a star onto a width×height viewport with the observer's zenith
// at the centre. Distance from the centre is (90 − alt)·(height/180) and the
// bearing is the azimuth, so the horizon sits at half the viewport height.
//
// Stars below the horizon still project (no clipping). ok is false only when
// the azimuth is undefined.
func Project(s Star, obs Observer, t time.Time, width, height float64) (Point, bool) {
	h := ToHorizontal(s, obs, t)
	if !h.Defined() {
		return Point{}, false
	}
	return projectHorizontal(h, width, height), true
}

func projectHorizontal(h Horizontal, width, height float64) Point {
	r := (90 - h.AltDeg) * (height / 180)
	az := degToRad(h.AzDeg)
	return Point{
		X: width/2 + r*math.Cos(az),
		Y: height/2 + r*math.Sin(az),
	}
}

// ProjectedStar is one catalog star after projection.
type ProjectedStar struct {
	Star    Star
	Horiz   Horizontal
	Point   Point
	Visible bool // false when the azimuth was undefined
}

// ProjectedConstellation is a constellation ready for drawing.
type ProjectedConstellation struct {
	Name     string
	Stars    []ProjectedStar
	Centroid Point
	// HasCentroid is false when no star in the constellation was drawable.
	HasCentroid bool
}

// ProjectConstellation projects every star of c and computes the label
// centroid over the drawable points.
func ProjectConstellation(c Constellation, obs Observer, t time.Time, width, height float64) ProjectedConstellation {
	out := ProjectedConstellation{
		Name:  c.Name,
		Stars: make([]ProjectedStar, len(c.Stars)),
	}

	var sx, sy float64
	var n int
	for i, s := range c.Stars {
		h := ToHorizontal(s, obs, t)
		ps := ProjectedStar{Star: s, Horiz: h}
		if h.Defined() {
			ps.Point = projectHorizontal(h, width, height)
			ps.Visible = true
			sx += ps.Point.X
			sy += ps.Point.Y
			n++
		}
		out.Stars[i] = ps
	}

	if n > 0 {
		out.Centroid = Point{X: sx / float64(n), Y: sy / float64(n)}
		out.HasCentroid = true
	}
	return out
}
