package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/alkaid/internal/server"
	"github.com/litescript/alkaid/internal/state"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve sensor readings, sensor visibility, the sky, the current weather and
place search as JSON, with Prometheus metrics at /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	places, err := a.searchClient()
	if err != nil {
		return fmt.Errorf("failed to create search cache: %w", err)
	}

	sky := a.sky(ctx, true)
	wx := state.NewWeather(a.weatherRepo(), a.gps(), a.log)
	wx.Start(ctx)

	srv := server.New(addr, server.Deps{
		Sensors:    a.sensors,
		Visibility: a.vis,
		Sky:        sky,
		Weather:    wx,
		Search:     places,
		Metrics:    a.metrics,
		Log:        a.log,
	})

	err = srv.Run(ctx)
	cancel()
	sky.Wait()
	wx.Wait()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
