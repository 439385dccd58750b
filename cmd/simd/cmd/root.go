package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simd",
	Short: "Headless deterministic RTS simulation",
	Long: `simd runs the RTS simulation core without a client: fixed-timestep
ticks, scripted or remote decision endpoints, replay recording, and an
event feed for observers.

Available commands:
  run       Run a skirmish to completion or for a fixed number of ticks
  mapgen    Generate a skirmish map file
  version   Print the build version`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for local runs; absence is not an error.
		_ = godotenv.Load()
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
