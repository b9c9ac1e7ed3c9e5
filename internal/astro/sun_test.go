package astro

import (
	"math"
	"testing"
	"time"
)

func TestSunPosition(t *testing.T) {
	tests := []struct {
		name       string
		time       time.Time
		wantRAMin  float64 // hours
		wantRAMax  float64
		wantDecMin float64
		wantDecMax float64
	}{
		{
			name:       "March equinox 2024",
			time:       time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			wantRAMin:  23.9, // wraps through 0h
			wantRAMax:  0.15,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "June solstice 2024",
			time:       time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  5.85,
			wantRAMax:  6.15,
			wantDecMin: 23,
			wantDecMax: 24,
		},
		{
			name:       "September equinox 2024",
			time:       time.Date(2024, 9, 22, 12, 0, 0, 0, time.UTC),
			wantRAMin:  11.85,
			wantRAMax:  12.15,
			wantDecMin: -1,
			wantDecMax: 1,
		},
		{
			name:       "December solstice 2024",
			time:       time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC),
			wantRAMin:  17.85,
			wantRAMax:  18.15,
			wantDecMin: -24,
			wantDecMax: -23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sun := SunPosition(tt.time)

			var raOK bool
			if tt.wantRAMin > tt.wantRAMax {
				raOK = sun.RAHours >= tt.wantRAMin || sun.RAHours <= tt.wantRAMax
			} else {
				raOK = sun.RAHours >= tt.wantRAMin && sun.RAHours <= tt.wantRAMax
			}
			if !raOK {
				t.Errorf("SunPosition() RA = %.3fh, want between %.3fh and %.3fh",
					sun.RAHours, tt.wantRAMin, tt.wantRAMax)
			}
			if sun.DecDeg < tt.wantDecMin || sun.DecDeg > tt.wantDecMax {
				t.Errorf("SunPosition() Dec = %.2f°, want between %.2f° and %.2f°",
					sun.DecDeg, tt.wantDecMin, tt.wantDecMax)
			}
		})
	}
}

func TestSunAltitude(t *testing.T) {
	greenwich := Observer{LatDeg: 51.48, LonDeg: 0}

	// Local noon at Greenwich on the June solstice: 90 − 51.48 + 23.44 ≈ 62°.
	noon := SunAltitude(greenwich, time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))
	if math.Abs(noon-62) > 1.5 {
		t.Errorf("noon altitude = %.2f°, want ~62°", noon)
	}

	// Midnight in December is well below the horizon.
	midnight := SunAltitude(greenwich, time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC))
	if midnight > -50 {
		t.Errorf("midnight altitude = %.2f°, want below -50°", midnight)
	}
}

func TestTwilightFor(t *testing.T) {
	tests := []struct {
		alt  float64
		want Twilight
	}{
		{45, TwilightDay},
		{0, TwilightDay},
		{-0.1, TwilightCivil},
		{-6, TwilightCivil},
		{-6.1, TwilightNautical},
		{-12, TwilightNautical},
		{-15, TwilightAstronomical},
		{-18, TwilightAstronomical},
		{-18.1, TwilightNight},
		{-80, TwilightNight},
	}

	for _, tt := range tests {
		if got := TwilightFor(tt.alt); got != tt.want {
			t.Errorf("TwilightFor(%v) = %v, want %v", tt.alt, got, tt.want)
		}
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name string
		a, b Star
		want float64
		tol  float64
	}{
		{"same point", Star{RAHours: 6, DecDeg: 30}, Star{RAHours: 6, DecDeg: 30}, 0, 0.001},
		{"quarter turn on equator", Star{RAHours: 0}, Star{RAHours: 6}, 90, 0.001},
		{"opposite on equator", Star{RAHours: 0}, Star{RAHours: 12}, 180, 0.001},
		{"pole to equator", Star{DecDeg: 90}, Star{}, 90, 0.001},
		{"pole to pole", Star{DecDeg: 90}, Star{DecDeg: -90}, 180, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("AngularSeparation() = %.4f°, want %.4f°", got, tt.want)
			}
		})
	}
}

func TestTwilightString(t *testing.T) {
	if got := TwilightNight.String(); got != "night" {
		t.Errorf("TwilightNight.String() = %q", got)
	}
	if got := Twilight(99).String(); got != "unknown" {
		t.Errorf("Twilight(99).String() = %q", got)
	}
}
