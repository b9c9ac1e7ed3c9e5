package astro

import (
	"math"
	"time"
)

// SunPosition returns the apparent equatorial coordinates of the Sun, RA in
// hours and declination in degrees, from the low-precision Almanac series
// (about 0.01° in RA).
func SunPosition(t time.Time) Star {
	T := (JulianDate(t) - J2000) / 36525.0

	L0 := normalize360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := degToRad(normalize360(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// Equation of centre.
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	omega := degToRad(125.04 - 1934.136*T)
	lon := degToRad(L0 + C - 0.00569 - 0.00478*math.Sin(omega))

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := degToRad(eps0 + 0.00256*math.Cos(omega))

	ra := normalize360(radToDeg(math.Atan2(math.Cos(eps)*math.Sin(lon), math.Cos(lon))))
	dec := radToDeg(math.Asin(math.Sin(eps) * math.Sin(lon)))

	return Star{Name: "Sun", RAHours: ra / 15, DecDeg: dec}
}

// SunAltitude returns the Sun's altitude in degrees for the observer at t.
func SunAltitude(obs Observer, t time.Time) float64 {
	return ToHorizontal(SunPosition(t), obs, t).AltDeg
}

// Twilight classifies how dark the sky is from the Sun's altitude.
type Twilight int

const (
	TwilightDay          Twilight = iota // Sun above the horizon
	TwilightCivil                        // 0° to −6°
	TwilightNautical                     // −6° to −12°
	TwilightAstronomical                 // −12° to −18°
	TwilightNight                        // below −18°
)

func (tw Twilight) String() string {
	switch tw {
	case TwilightDay:
		return "day"
	case TwilightCivil:
		return "civil twilight"
	case TwilightNautical:
		return "nautical twilight"
	case TwilightAstronomical:
		return "astronomical twilight"
	case TwilightNight:
		return "night"
	default:
		return "unknown"
	}
}

// TwilightFor maps a solar altitude onto a twilight phase.
func TwilightFor(sunAltDeg float64) Twilight {
	switch {
	case sunAltDeg >= 0:
		return TwilightDay
	case sunAltDeg >= -6:
		return TwilightCivil
	case sunAltDeg >= -12:
		return TwilightNautical
	case sunAltDeg >= -18:
		return TwilightAstronomical
	default:
		return TwilightNight
	}
}

// AngularSeparation returns the great-circle distance in degrees between two
// equatorial positions.
func AngularSeparation(a, b Star) float64 {
	ra1, dec1 := degToRad(a.RAHours*15), degToRad(a.DecDeg)
	ra2, dec2 := degToRad(b.RAHours*15), degToRad(b.DecDeg)

	// Haversine
	sDec := math.Sin((dec2 - dec1) / 2)
	sRA := math.Sin((ra2 - ra1) / 2)
	h := sDec*sDec + math.Cos(dec1)*math.Cos(dec2)*sRA*sRA
	if h > 1 {
		h = 1
	}
	return radToDeg(2 * math.Asin(math.Sqrt(h)))
}
