// Package sensor models device sensors as observable streams of Results.
package sensor

// Type identifies one of the sensors alkaid knows about.
type Type int

const (
	Barometer Type = iota
	Gyroscope
	Temperature
	GPS
	Accelerometer
	Magnetometer
	Light
	Humidity
)

type typeInfo struct {
	name string
	unit string
	key  string
}

// Declaration order is the display order.
var types = [...]typeInfo{
	Barometer:     {"Barometer", "hPa", "show_barometer"},
	Gyroscope:     {"Gyroscope", "rad/s", "show_gyroscope"},
	Temperature:   {"Temperature", "°C", "show_temperature"},
	GPS:           {"GPS Location", "°", "show_gps"},
	Accelerometer: {"Accelerometer", "m/s²", "show_accelerometer"},
	Magnetometer:  {"Magnetometer", "µT", "show_magnetometer"},
	Light:         {"Light Sensor", "lx", "show_light"},
	Humidity:      {"Humidity", "%", "show_humidity"},
}

// AllTypes returns every type in display order.
func AllTypes() []Type {
	out := make([]Type, len(types))
	for i := range types {
		out[i] = Type(i)
	}
	return out
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t >= 0 && int(t) < len(types)
}

// DisplayName is the human label, e.g. "Light Sensor".
func (t Type) DisplayName() string {
	if !t.Valid() {
		return "Unknown"
	}
	return types[t].name
}

// Unit is the measurement unit shown next to readings.
func (t Type) Unit() string {
	if !t.Valid() {
		return ""
	}
	return types[t].unit
}

// Key is the stable preference key, e.g. "show_barometer".
func (t Type) Key() string {
	if !t.Valid() {
		return ""
	}
	return types[t].key
}

func (t Type) String() string {
	return t.DisplayName()
}

// TypeFromKey is the reverse of Key.
func TypeFromKey(key string) (Type, bool) {
	for i, info := range types {
		if info.key == key {
			return Type(i), true
		}
	}
	return 0, false
}
