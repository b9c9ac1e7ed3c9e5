package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for a place",
	Long:  `Look up places by name using the OpenStreetMap Nominatim service.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	q := strings.Join(args, " ")
	if n := len([]rune(strings.TrimSpace(q))); n < a.cfg.Search.MinQueryLength {
		return fmt.Errorf("query must be at least %d characters", a.cfg.Search.MinQueryLength)
	}

	client, err := a.searchClient()
	if err != nil {
		return fmt.Errorf("failed to create search cache: %w", err)
	}
	places, err := client.Search(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(places)
	}
	if len(places) == 0 {
		fmt.Fprintln(out, "No places found")
		return nil
	}
	for _, p := range places {
		fmt.Fprintf(out, "%11.6f %11.6f  %-12s %s\n", p.Lat, p.Lon, p.Type, p.DisplayName)
	}
	return nil
}
