package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/alkaid/internal/astro"
	"github.com/litescript/alkaid/internal/ui"
)

var (
	skyLat     float64
	skyLon     float64
	skyAt      string
	skyWidth   int
	skyHeight  int
	skyNoColor bool
	skyUseGPS  bool
)

var skyCmd = &cobra.Command{
	Use:   "sky",
	Short: "Print the constellation map",
	Long: `Print the constellations above the horizon as an ASCII sky map.
North is at the top and east to the right. Without --lat/--lon the
configured device location is used; --gps waits for a fix instead.`,
	RunE: runSky,
}

func init() {
	rootCmd.AddCommand(skyCmd)
	skyCmd.Flags().Float64Var(&skyLat, "lat", 0, "Observer latitude in degrees")
	skyCmd.Flags().Float64Var(&skyLon, "lon", 0, "Observer longitude in degrees")
	skyCmd.Flags().StringVar(&skyAt, "at", "", "Render time (RFC 3339, default now)")
	skyCmd.Flags().IntVar(&skyWidth, "width", 0, "Columns (default terminal width or 80)")
	skyCmd.Flags().IntVar(&skyHeight, "height", 0, "Rows (default terminal height or 30)")
	skyCmd.Flags().BoolVar(&skyNoColor, "no-color", false, "Disable colors")
	skyCmd.Flags().BoolVar(&skyUseGPS, "gps", false, "Use the first GPS fix as the observer")
}

func runSky(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	at := time.Now()
	if skyAt != "" {
		at, err = time.Parse(time.RFC3339, skyAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	sky := a.sky(cmd.Context(), false)
	switch {
	case cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon"):
		if skyLat < -90 || skyLat > 90 || skyLon < -180 || skyLon > 180 {
			return fmt.Errorf("coordinates out of range: %.4f, %.4f", skyLat, skyLon)
		}
		sky.SetObserver(astro.Observer{LatDeg: skyLat, LonDeg: skyLon, Name: "Custom"})
	case skyUseGPS:
		loc, err := readLocation(cmd, a)
		if err != nil {
			return err
		}
		sky.SetObserver(astro.Observer{LatDeg: loc.Latitude, LonDeg: loc.Longitude, Name: "GPS"})
	}

	out := cmd.OutOrStdout()
	isTTY := isTerminal(out)
	cols, rows := skyWidth, skyHeight
	if f, ok := out.(*os.File); ok && isTTY {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			cols, rows = pick(cols, w), pick(rows, h-2)
		}
	}
	cols, rows = pick(cols, 80), pick(rows, 30)

	obs, _ := sky.Observer()
	sun := astro.SunAltitude(obs, at)
	fmt.Fprintf(out, "%s  %.2f°, %.2f°  %s  sun %.1f° (%s)\n",
		obsLabel(obs), obs.LatDeg, obs.LonDeg, at.Format("2006-01-02 15:04 MST"), sun, astro.TwilightFor(sun))
	fmt.Fprintln(out, ui.RenderSky(sky, at, cols, rows, isTTY && !skyNoColor))
	return nil
}

func obsLabel(obs astro.Observer) string {
	if obs.Name == "" {
		return "Observer"
	}
	return obs.Name
}

func pick(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
