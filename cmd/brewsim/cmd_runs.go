package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BrewSim/internal/config"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List a user's archived runs from the configured storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			user, _ := cmd.Flags().GetString("user")
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.LoadServiceConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			store, err := openBacking(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if store.history == nil {
				return fmt.Errorf("storage driver %q keeps no runs", store.driver)
			}

			runs, err := store.history(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().String("user", "", "User ID")
	cmd.Flags().Int("limit", 20, "Maximum number of runs")
	cmd.MarkFlagRequired("user")
	return cmd
}

func printRuns(out io.Writer, runs []runSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-8s %3d/%-3d  %s\n", r.Created.Local().Format("2006-01-02 15:04"), r.Kind, r.Score, r.MaxScore, r.ID)
	}
}
