package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litescript/alkaid/internal/config"
	"github.com/litescript/alkaid/internal/prefs"
	"github.com/litescript/alkaid/internal/ui"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Preference management commands",
	Long:  `Commands for viewing and changing sensor visibility and map preferences.`,
}

var prefsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all preferences",
	RunE:  runPrefsList,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <sensor> <on|off>",
	Short: "Show or hide a sensor card",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Make every sensor visible again",
	RunE:  runPrefsReset,
}

var prefsProviderCmd = &cobra.Command{
	Use:   "provider [osm|google]",
	Short: "Show or set the map tile provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrefsProvider,
}

var prefsZoomCmd = &cobra.Command{
	Use:   "zoom [level]",
	Short: "Show or set the default map zoom",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrefsZoom,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsListCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsResetCmd)
	prefsCmd.AddCommand(prefsProviderCmd)
	prefsCmd.AddCommand(prefsZoomCmd)
}

func runPrefsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Sensor visibility")
	fmt.Fprintln(out, ui.RenderVisibilityPanel(a.vis.All(), -1))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Map provider  %s\n", a.mapPrefs.Provider().DisplayName())
	fmt.Fprintf(out, "Default zoom  %g\n", a.mapPrefs.DefaultZoom())
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	t, ok := config.TypeFromShortName(args[0])
	if !ok {
		return fmt.Errorf("unknown sensor %q", args[0])
	}
	visible, err := parseOnOff(args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.vis.SetVisible(t, visible); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.DisplayName(), onOff(visible))
	return nil
}

func runPrefsReset(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.vis.ResetToDefaults(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All sensors visible")
	return nil
}

func runPrefsProvider(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		var p prefs.Provider
		switch strings.ToLower(args[0]) {
		case "osm":
			p = prefs.ProviderOSM
		case "google":
			p = prefs.ProviderGoogle
		default:
			return fmt.Errorf("unknown provider %q (want osm or google)", args[0])
		}
		if err := a.mapPrefs.SetProvider(p); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.mapPrefs.Provider().DisplayName())
	return nil
}

func runPrefsZoom(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		z, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid zoom %q: %w", args[0], err)
		}
		if err := a.mapPrefs.SetDefaultZoom(z); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%g\n", a.mapPrefs.DefaultZoom())
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "show", "true", "yes":
		return true, nil
	case "off", "hide", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}
