package sensor

import (
	"fmt"
	"math"
)

// Reading is a sensor payload. Implementations are plain comparable values.
type Reading interface {
	isReading()
}

// Scalar is a single-valued reading: pressure (hPa), ambient temperature
// (°C), relative humidity (%) or illuminance (lx).
type Scalar struct {
	Value float64
}

// Vector3 is a three-axis reading from the gyroscope, accelerometer or
// magnetometer.
type Vector3 struct {
	X, Y, Z float64
}

// Location is a GPS fix. Altitude and accuracy are only meaningful when the
// matching Has flag is set.
type Location struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	HasAltitude bool
	Accuracy    float64 // metres
	HasAccuracy bool
}

func (Scalar) isReading()   {}
func (Vector3) isReading()  {}
func (Location) isReading() {}

// Magnitude is the Euclidean length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// FormatLatLng renders "lat°, lon°" with six decimals.
func (l Location) FormatLatLng() string {
	return fmt.Sprintf("%.6f°, %.6f°", l.Latitude, l.Longitude)
}

// FormatAltitude renders "123.4 m" or "N/A".
func (l Location) FormatAltitude() string {
	if !l.HasAltitude {
		return "N/A"
	}
	return fmt.Sprintf("%.1f m", l.Altitude)
}

// FormatAccuracy renders "±5.0 m" or "N/A".
func (l Location) FormatAccuracy() string {
	if !l.HasAccuracy {
		return "N/A"
	}
	return fmt.Sprintf("±%.1f m", l.Accuracy)
}

// Format renders a reading the way the sensor card shows it. Vector sensors
// show their magnitude. A reading of the wrong shape for t yields "N/A".
func (t Type) Format(r Reading) string {
	switch v := r.(type) {
	case Scalar:
		switch t {
		case Barometer:
			return fmt.Sprintf("%.1f hPa", v.Value)
		case Temperature:
			return fmt.Sprintf("%.1f °C", v.Value)
		case Light:
			return fmt.Sprintf("%.1f lx", v.Value)
		case Humidity:
			return fmt.Sprintf("%.1f%%", v.Value)
		}
	case Vector3:
		switch t {
		case Gyroscope:
			return fmt.Sprintf("%.3f rad/s", v.Magnitude())
		case Accelerometer:
			return fmt.Sprintf("%.3f m/s²", v.Magnitude())
		case Magnetometer:
			return fmt.Sprintf("%.2f µT", v.Magnitude())
		}
	case Location:
		if t == GPS {
			return v.FormatLatLng()
		}
	}
	return "N/A"
}
