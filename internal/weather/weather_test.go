package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/alkaid/internal/secure"
)

const sampleJSON = `{
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "main": {"temp": 21.7, "feels_like": -3.6, "temp_min": 18.2, "temp_max": 24.9, "pressure": 1013, "humidity": 64},
  "wind": {"speed": 4.12, "deg": 250, "gust": 7.5},
  "clouds": {"all": 75},
  "visibility": 9800,
  "dt": 1700000000,
  "sys": {"country": "GB", "sunrise": 1699945200, "sunset": 1699978000},
  "timezone": 3600,
  "id": 2643743,
  "name": "London",
  "cod": 200
}`

type memKeys struct {
	key string
}

func (k *memKeys) WeatherAPIKey() (string, error) {
	if k.key == "" {
		return "", secure.ErrNoKey
	}
	return k.key, nil
}
func (k *memKeys) HasWeatherAPIKey() bool             { return k.key != "" }
func (k *memKeys) SaveWeatherAPIKey(key string) error { k.key = key; return nil }
func (k *memKeys) RemoveWeatherAPIKey() error         { k.key = ""; return nil }

func TestClient_CurrentByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "51.5", q.Get("lat"))
		assert.Equal(t, "-0.12", q.Get("lon"))
		assert.Equal(t, "secret", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	resp, err := c.CurrentByCoordinates(context.Background(), 51.5, -0.12, "secret")
	require.NoError(t, err)
	assert.Equal(t, "London", resp.CityName)
	require.NotNil(t, resp.Wind.Degree)
	assert.Equal(t, 250, *resp.Wind.Degree)
	assert.Nil(t, resp.Main.SeaLevel)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key. Please see https://openweathermap.org/faq#error401"}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).CurrentByCity(context.Background(), "London", "bad")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 401, se.Code)
	assert.Contains(t, se.Message, "Invalid API key")
}

func TestClient_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(WithBaseURL(url)).CurrentByCity(context.Background(), "London", "topsecret")
	require.ErrorIs(t, err, ErrUnreachable)
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestNewDisplayData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	resp, err := NewClient(WithBaseURL(srv.URL)).CurrentByCity(context.Background(), "London", "k")
	require.NoError(t, err)

	d := NewDisplayData(resp, "")
	assert.Equal(t, DisplayData{
		Location:    "London",
		Temperature: "21°C",
		Condition:   "Light rain",
		FeelsLike:   "Feels like -3°C",
		TempRange:   "18°/24°",
		Humidity:    "64%",
		Pressure:    "1013 hPa",
		Wind:        "4.1 m/s W",
		Gust:        "7.5 m/s",
		Cloudiness:  "75%",
		Visibility:  "9 km",
		IconURL:     "https://openweathermap.org/img/wn/10d@2x.png",
		LastUpdated: "23:13",
		Sunrise:     "08:00",
		Sunset:      "17:06",
	}, d)
}

func TestNewDisplayData_MissingOptionals(t *testing.T) {
	d := NewDisplayData(&Response{CityName: "Nowhere"}, "Elsewhere")
	assert.Equal(t, "Elsewhere", d.Location)
	assert.Equal(t, "Unknown", d.Condition)
	assert.Equal(t, "0.0 m/s N/A", d.Wind)
	assert.Equal(t, "N/A", d.Gust)
	assert.Equal(t, "", d.IconURL)
	assert.Equal(t, "0 km", d.Visibility)
}

func TestWindDirection(t *testing.T) {
	deg := func(d int) *int { return &d }
	tests := map[int]string{
		0: "N", 22: "N", 23: "NE", 67: "NE", 68: "E", 112: "E", 113: "SE",
		157: "SE", 158: "S", 202: "S", 203: "SW", 247: "SW", 248: "W",
		292: "W", 293: "NW", 337: "NW", 338: "N", 360: "N",
	}
	for d, want := range tests {
		assert.Equal(t, want, WindDirection(deg(d)), "deg %d", d)
	}
	assert.Equal(t, "N/A", WindDirection(nil))
}

func TestRepository_Classification(t *testing.T) {
	var status atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := int(status.Load())
		if code != http.StatusOK {
			w.WriteHeader(code)
			w.Write([]byte(`{"message":"nope"}`))
			return
		}
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	keys := &memKeys{}
	repo := NewRepository(NewClient(WithBaseURL(srv.URL)), keys)
	ctx := context.Background()

	assert.Equal(t, KindNoAPIKey, repo.ByCoordinates(ctx, 1, 2).Kind)
	require.NoError(t, repo.SaveAPIKey("k"))
	assert.True(t, repo.HasAPIKey())

	status.Store(http.StatusOK)
	res := repo.ByCoordinates(ctx, 51.50735, -0.12776)
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "51.5074°, -0.1278°", res.Data.Location)

	res = repo.ByCity(ctx, " London ")
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "London", res.Data.Location)

	cases := []struct {
		code   int
		coords string
		city   string
	}{
		{http.StatusUnauthorized, "Invalid API key", "Invalid API key"},
		{http.StatusNotFound, "Location not found", "City not found"},
		{http.StatusTooManyRequests, "API rate limit exceeded", "API rate limit exceeded"},
		{http.StatusInternalServerError, "Failed to get weather data: weather API returned 500: nope", "Failed to get weather data: weather API returned 500: nope"},
	}
	for _, tc := range cases {
		status.Store(int32(tc.code))
		res := repo.ByCoordinates(ctx, 1, 2)
		assert.Equal(t, KindError, res.Kind)
		assert.Equal(t, tc.coords, res.Message)
		assert.Equal(t, tc.city, repo.ByCity(ctx, "x").Message)
	}

	require.NoError(t, repo.RemoveAPIKey())
	assert.Equal(t, KindNoAPIKey, repo.ByCity(ctx, "London").Kind)
}

func TestRepository_NoConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := NewRepository(NewClient(WithBaseURL(url)), &memKeys{key: "k"})
	res := repo.ByCity(context.Background(), "London")
	assert.Equal(t, KindError, res.Kind)
	assert.Equal(t, "No internet connection", res.Message)
}
