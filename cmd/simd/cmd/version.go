package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("simd %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
