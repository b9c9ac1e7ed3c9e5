package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/alkaid/internal/config"
	"github.com/litescript/alkaid/internal/sensor"
)

var (
	sensorsWatch   time.Duration
	sensorsAll     bool
	sensorsTimeout time.Duration
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors [type...]",
	Short: "Print sensor readings",
	Long: `Read each sensor once and print the result. Types are short names
such as "light" or "gps"; without arguments the sensors marked visible in
preferences are read, followed by GPS. --watch repeats at an interval.`,
	RunE: runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.Flags().DurationVar(&sensorsWatch, "watch", 0, "Repeat at interval (e.g., 2s)")
	sensorsCmd.Flags().BoolVar(&sensorsAll, "all", false, "Read every sensor regardless of visibility")
	sensorsCmd.Flags().DurationVar(&sensorsTimeout, "timeout", 3*time.Second, "Per-sensor read timeout")
}

func runSensors(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	types, err := sensorTypes(args, a.vis.VisibleTypes())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if sensorsWatch == 0 {
		writeReadings(out, types, readAll(ctx, a.sensors, types, sensorsTimeout))
		return nil
	}

	// Watch mode: repeat at interval
	writeReadings(out, types, readAll(ctx, a.sensors, types, sensorsTimeout))
	ticker := time.NewTicker(sensorsWatch)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(out)
			writeReadings(out, types, readAll(ctx, a.sensors, types, sensorsTimeout))
		}
	}
}

// sensorTypes resolves the command arguments, falling back to the visible
// list plus GPS.
func sensorTypes(args []string, visible []sensor.Type) ([]sensor.Type, error) {
	if sensorsAll {
		return sensor.AllTypes(), nil
	}
	if len(args) == 0 {
		out := append([]sensor.Type(nil), visible...)
		for _, t := range out {
			if t == sensor.GPS {
				return out, nil
			}
		}
		return append(out, sensor.GPS), nil
	}

	out := make([]sensor.Type, 0, len(args))
	for _, arg := range args {
		t, ok := config.TypeFromShortName(arg)
		if !ok {
			return nil, fmt.Errorf("unknown sensor %q", arg)
		}
		out = append(out, t)
	}
	return out, nil
}

// readAll reads every type concurrently. Results line up with types.
func readAll(ctx context.Context, reg *sensor.Registry, types []sensor.Type, timeout time.Duration) []sensor.Result {
	results := make([]sensor.Result, len(types))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results[i] = reg.Read(rctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeReadings(w io.Writer, types []sensor.Type, results []sensor.Result) {
	fmt.Fprintf(w, "%-16s %s\n", "SENSOR", "READING")
	for i, t := range types {
		fmt.Fprintf(w, "%-16s %s\n", t.DisplayName(), formatResult(t, results[i]))
	}
}

func formatResult(t sensor.Type, r sensor.Result) string {
	switch {
	case r.IsError():
		return "error: " + r.Message
	case r.IsLoading():
		return "no reading"
	}
	if loc, ok := r.Location(); ok {
		return fmt.Sprintf("%s  alt %s  acc %s", loc.FormatLatLng(), loc.FormatAltitude(), loc.FormatAccuracy())
	}
	return t.Format(r.Reading)
}

// readLocation waits for the first GPS fix.
func readLocation(cmd *cobra.Command, a *app) (sensor.Location, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	r := a.sensors.Read(ctx, sensor.GPS)
	if loc, ok := r.Location(); ok {
		return loc, nil
	}
	if r.IsError() {
		return sensor.Location{}, fmt.Errorf("location unavailable: %s", r.Message)
	}
	return sensor.Location{}, fmt.Errorf("location unavailable: no fix within 10s")
}
