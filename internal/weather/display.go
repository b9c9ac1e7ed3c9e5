package weather

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DisplayData is a Response rendered into panel strings.
type DisplayData struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	FeelsLike   string `json:"feels_like"`
	TempRange   string `json:"temp_range"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	Wind        string `json:"wind"`
	Gust        string `json:"gust"`
	Cloudiness  string `json:"cloudiness"`
	Visibility  string `json:"visibility"`
	IconURL     string `json:"icon_url,omitempty"`
	LastUpdated string `json:"last_updated"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
}

// NewDisplayData formats r. location replaces the city name when non-empty.
// Temperatures are truncated toward zero, not rounded.
func NewDisplayData(r *Response, location string) DisplayData {
	if location == "" {
		location = r.CityName
	}
	zone := time.FixedZone("", r.Timezone)

	d := DisplayData{
		Location:    location,
		Temperature: fmt.Sprintf("%d°C", int(r.Main.Temp)),
		Condition:   "Unknown",
		FeelsLike:   fmt.Sprintf("Feels like %d°C", int(r.Main.FeelsLike)),
		TempRange:   fmt.Sprintf("%d°/%d°", int(r.Main.TempMin), int(r.Main.TempMax)),
		Humidity:    fmt.Sprintf("%d%%", r.Main.Humidity),
		Pressure:    fmt.Sprintf("%d hPa", r.Main.Pressure),
		Wind:        fmt.Sprintf("%.1f m/s %s", r.Wind.Speed, WindDirection(r.Wind.Degree)),
		Gust:        "N/A",
		Cloudiness:  fmt.Sprintf("%d%%", r.Clouds.All),
		Visibility:  fmt.Sprintf("%d km", r.Visibility/1000),
		LastUpdated: clock(r.Timestamp, zone),
		Sunrise:     clock(r.Sys.Sunrise, zone),
		Sunset:      clock(r.Sys.Sunset, zone),
	}
	if r.Wind.Gust != nil {
		d.Gust = fmt.Sprintf("%.1f m/s", *r.Wind.Gust)
	}
	if len(r.Weather) > 0 {
		w := r.Weather[0]
		d.Condition = capitalize(w.Description)
		d.IconURL = IconURL(w.Icon)
	}
	return d
}

// IconURL is the 2x PNG for an icon code.
func IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return "https://openweathermap.org/img/wn/" + icon + "@2x.png"
}

// WindDirection maps degrees onto an eight-point compass; nil is "N/A".
func WindDirection(deg *int) string {
	if deg == nil {
		return "N/A"
	}
	switch d := *deg; {
	case d >= 23 && d <= 67:
		return "NE"
	case d >= 68 && d <= 112:
		return "E"
	case d >= 113 && d <= 157:
		return "SE"
	case d >= 158 && d <= 202:
		return "S"
	case d >= 203 && d <= 247:
		return "SW"
	case d >= 248 && d <= 292:
		return "W"
	case d >= 293 && d <= 337:
		return "NW"
	default:
		return "N"
	}
}

func clock(unix int64, zone *time.Location) string {
	if unix == 0 {
		return "N/A"
	}
	return time.Unix(unix, 0).In(zone).Format("15:04")
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + s[n:]
}
