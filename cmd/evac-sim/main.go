package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "evac-sim",
	Short: "Building-evacuation rescue simulator",
	Long: `evac-sim drives firefighter agents through a graph-modeled building under
spreading fire and smoke. Phase one sweeps the building to discover occupants;
phase two generates and executes optimal rescue plans for those who cannot
evacuate on their own.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(benchmarkCmd)
}

// Commands are defined in separate files:
// - visualizeCmd in visualize.go
// - benchmarkCmd in benchmark.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
