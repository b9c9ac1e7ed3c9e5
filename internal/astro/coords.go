// Package astro provides sidereal time, horizontal coordinates and the
// zenith-centred sky projection used by the constellation map.
package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 UTC).
const J2000 = 2451545.0

// degenerateEps bounds cos(alt)·cos(lat) below which azimuth is undefined.
// One ulp of error in sin(alt) near the zenith already moves cos(alt) to
// ~1.5e-8, so the bound sits above that.
const degenerateEps = 1e-7

// Observer is a ground position. It is updated whenever a fresh location
// reading arrives and read on every redraw.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional label
}

// Horizontal is an observer-relative sky position.
type Horizontal struct {
	AzDeg  float64 // Azimuth in degrees, NaN when undefined (zenith or polar observer)
	AltDeg float64 // Altitude in degrees (0=horizon, 90=zenith)
}

// Defined reports whether the azimuth could be computed.
func (h Horizontal) Defined() bool {
	return !math.IsNaN(h.AzDeg) && !math.IsNaN(h.AltDeg)
}

// JulianDate returns the Julian Date for t. All dates are treated as
// Gregorian; there is no handling of the 1582 calendar cutover.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	dayFrac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3600 +
		float64(t.Nanosecond())/3600e9) / 24.0

	// January and February count as months 13 and 14 of the previous year.
	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + b - 1524.5
}

// GMST returns Greenwich Mean Sidereal Time in degrees [0, 360) for a Julian
// Date, using the IAU 1982 polynomial.
func GMST(jd float64) float64 {
	T := (jd - J2000) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalize360(gmst)
}

// LocalSiderealTime returns LST in degrees [0, 360) for a UTC instant and an
// east-positive longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalize360(GMST(JulianDate(t)) + lonDeg)
}

// HourAngle returns LST − RA in degrees for a right ascension in hours.
func HourAngle(raHours float64, obs Observer, t time.Time) float64 {
	return LocalSiderealTime(t, obs.LonDeg) - raHours*15
}

// ToHorizontal converts a star's equatorial position to altitude/azimuth for
// the observer at t.
//
// Azimuth follows the hemisphere rule: acos gives 0..180 and the result is
// mirrored to 360−az when sin(HA) > 0. When cos(alt)·cos(lat) vanishes the
// azimuth is NaN; callers treat that as "do not draw".
func ToHorizontal(s Star, obs Observer, t time.Time) Horizontal {
	lat := degToRad(obs.LatDeg)
	dec := degToRad(s.DecDeg)
	ha := degToRad(HourAngle(s.RAHours, obs, t))

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(math.Max(-1, math.Min(1, sinAlt)))

	denom := math.Cos(alt) * math.Cos(lat)
	if math.Abs(denom) < degenerateEps {
		return Horizontal{AzDeg: math.NaN(), AltDeg: radToDeg(alt)}
	}

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / denom
	// Only absorb rounding overshoot; a genuinely out-of-range value stays NaN.
	if cosAz > 1 && cosAz-1 < 1e-9 {
		cosAz = 1
	} else if cosAz < -1 && -1-cosAz < 1e-9 {
		cosAz = -1
	}

	az := radToDeg(math.Acos(cosAz))
	if math.Sin(ha) > 0 {
		az = 360 - az
	}

	return Horizontal{AzDeg: az, AltDeg: radToDeg(alt)}
}

func normalize360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
