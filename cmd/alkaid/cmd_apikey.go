package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/alkaid/internal/config"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Weather API key commands",
	Long:  `Commands for managing the OpenWeatherMap API key, stored encrypted in the data directory.`,
}

var apikeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the weather API key",
	Long:  `Prompt for the API key (input hidden on a terminal) or read it from stdin.`,
	Args:  cobra.NoArgs,
	RunE:  runAPIKeySet,
}

var apikeyRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the stored weather API key",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyRemove,
}

var apikeyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a weather API key is available",
	Args:  cobra.NoArgs,
	RunE:  runAPIKeyStatus,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyRemoveCmd)
	apikeyCmd.AddCommand(apikeyStatusCmd)
}

func runAPIKeySet(cmd *cobra.Command, args []string) error {
	key, err := readSecret(cmd, "Enter OpenWeatherMap API key: ")
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.keys.SaveWeatherAPIKey(key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
	return nil
}

func runAPIKeyRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.keys.RemoveWeatherAPIKey(); err != nil {
		return fmt.Errorf("failed to remove API key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
	return nil
}

func runAPIKeyStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	switch {
	case a.cfg.Weather.APIKey != "":
		fmt.Fprintf(out, "API key set from config or %s\n", config.EnvWeatherAPIKey)
	case a.keys.HasWeatherAPIKey():
		fmt.Fprintln(out, "API key stored")
	default:
		fmt.Fprintln(out, "No API key configured")
	}
	if a.keys.Encrypted() {
		fmt.Fprintln(out, "Storage: encrypted")
	} else {
		fmt.Fprintln(out, "Storage: plaintext (master key unavailable)")
	}
	return nil
}

// readSecret prompts without echo on a terminal and otherwise reads one line.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
