package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/alkaid/internal/config"
	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/search"
	"github.com/litescript/alkaid/internal/state"
	"github.com/litescript/alkaid/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	// The alt screen owns the terminal, so logs go to a file.
	logFile, err := openLogFile(a.cfg.DataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	a.log.SetOutput(logFile)

	places, err := a.searchClient()
	if err != nil {
		return fmt.Errorf("failed to create search cache: %w", err)
	}

	gps := a.gps()
	home := state.NewHome(gps, a.vis, a.log)
	sky := a.sky(ctx, true)
	wx := state.NewWeather(a.weatherRepo(), gps, a.log)
	mp := state.NewMap(gps, a.mapPrefs, search.SearchFunc(places.Search), state.MapOptions{
		Debounce:       a.cfg.Search.Debounce,
		MinQueryLength: a.cfg.Search.MinQueryLength,
	}, a.log)

	home.StartObserving(ctx)
	wx.Start(ctx)
	mp.Start(ctx)

	model := ui.New(ctx, ui.Deps{
		Sensors:         a.sensors,
		Home:            home,
		Visibility:      a.vis,
		Sky:             sky,
		Weather:         wx,
		Map:             mp,
		Log:             a.log,
		RefreshInterval: a.cfg.RefreshInterval,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	path := resolvedConfigPath()
	w, err := config.Watch(ctx, path, a.log, func(cfg *config.Config) {
		a.log.SetLevel(logging.ParseLevel(cfg.LogLevel))
		p.Send(ui.StatusMsg("Config reloaded, log level " + cfg.LogLevel))
	})
	if err != nil {
		a.log.Warn("Config hot reload disabled: %v", err)
	} else {
		defer w.Close()
	}

	a.log.Info("Dashboard starting")
	_, runErr := p.Run()

	// Stop the state loops before the store closes underneath them.
	interrupted := cmd.Context().Err() != nil
	cancel()
	for _, s := range []interface{ Wait() }{home, sky, wx, mp} {
		s.Wait()
	}

	if runErr != nil && !interrupted {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "alkaid.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
