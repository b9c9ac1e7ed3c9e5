package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/litescript/alkaid/internal/weather"
)

var (
	weatherCity string
	weatherJSON bool
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Print the current weather",
	Long: `Fetch the current weather from OpenWeatherMap for the device location,
or for a city with --city. Requires an API key (see "alkaid apikey set").`,
	RunE: runWeather,
}

func init() {
	rootCmd.AddCommand(weatherCmd)
	weatherCmd.Flags().StringVar(&weatherCity, "city", "", "City name instead of the device location")
	weatherCmd.Flags().BoolVar(&weatherJSON, "json", false, "Print JSON")
}

func runWeather(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	repo := a.weatherRepo()
	if !repo.HasAPIKey() {
		return errors.New("no weather API key configured; run `alkaid apikey set`")
	}

	var res weather.Result
	if weatherCity != "" {
		res = repo.ByCity(cmd.Context(), weatherCity)
	} else {
		loc, err := readLocation(cmd, a)
		if err != nil {
			return err
		}
		res = repo.ByCoordinates(cmd.Context(), loc.Latitude, loc.Longitude)
	}

	switch res.Kind {
	case weather.KindNoAPIKey:
		return errors.New("no weather API key configured; run `alkaid apikey set`")
	case weather.KindError:
		return errors.New(res.Message)
	}

	out := cmd.OutOrStdout()
	if weatherJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Data)
	}
	writeWeather(out, res.Data)
	return nil
}

func writeWeather(w io.Writer, d weather.DisplayData) {
	fmt.Fprintf(w, "%s\n", d.Location)
	fmt.Fprintf(w, "  %s, %s (%s)\n", d.Temperature, d.Condition, d.FeelsLike)
	rows := [][2]string{
		{"Range", d.TempRange},
		{"Humidity", d.Humidity},
		{"Pressure", d.Pressure},
		{"Wind", d.Wind},
		{"Gusts", d.Gust},
		{"Clouds", d.Cloudiness},
		{"Visibility", d.Visibility},
		{"Sunrise", d.Sunrise},
		{"Sunset", d.Sunset},
		{"Updated", d.LastUpdated},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-11s %s\n", r[0], r[1])
	}
}
