package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BrewSim/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brewsim",
		Short: "Coffee brewing simulation level sequencer",
		Long: `brewsim sequences the levels of an espresso or moka pot brewing
simulation, scores each level, and submits the finished record to the
score backend.

Run "brewsim serve" for the HTTP API and MQTT scene bridge, or
"brewsim play" to run a simulation headless from a score script.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "configs/brewsim.yaml", "Path to brewsim.yaml")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newPlayCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version.Version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "brewsim version %s\n", version.Version)
			}
		},
	}
}
