package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Discrete-event routing protocol simulator",
	Long: `routesim runs distributed routing protocols inside a discrete-event
network simulator. Each node sees only its own link changes and incoming
messages, and must converge with its peers on loop-free shortest routes.
Two protocols are available: a path-vector distance-vector protocol and a
link-state flooding protocol.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
