// Package weather fetches current conditions from the OpenWeatherMap API and
// shapes them for display.
package weather

// Response is the current-weather payload.
type Response struct {
	Weather    []Condition `json:"weather"`
	Main       Main        `json:"main"`
	Wind       Wind        `json:"wind"`
	Clouds     Clouds      `json:"clouds"`
	Visibility int         `json:"visibility"` // metres
	Timestamp  int64       `json:"dt"`         // unix seconds, UTC
	Sys        Sys         `json:"sys"`
	Timezone   int         `json:"timezone"` // offset from UTC in seconds
	CityID     int         `json:"id"`
	CityName   string      `json:"name"`
	Cod        int         `json:"cod"`
}

// Condition is one weather condition entry.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Main holds temperatures (°C with units=metric), pressure and humidity.
type Main struct {
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Pressure    int     `json:"pressure"`
	Humidity    int     `json:"humidity"`
	SeaLevel    *int    `json:"sea_level,omitempty"`
	GroundLevel *int    `json:"grnd_level,omitempty"`
}

// Wind speed is m/s; direction and gust are optional.
type Wind struct {
	Speed  float64  `json:"speed"`
	Degree *int     `json:"deg,omitempty"`
	Gust   *float64 `json:"gust,omitempty"`
}

// Clouds is cloudiness in percent.
type Clouds struct {
	All int `json:"all"`
}

// Sys carries country and sun times.
type Sys struct {
	Type    *int   `json:"type,omitempty"`
	ID      *int   `json:"id,omitempty"`
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// apiError is the error body the API returns with non-200 statuses.
type apiError struct {
	Message string `json:"message"`
}
