package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"otto/internal/logger"
)

var (
	verbose bool
	log     = logger.New()
)

var rootCmd = &cobra.Command{
	Use:   "otto",
	Short: "Otto - Oppo UDP-20x control over Telnet",
	Long: `Otto controls Oppo UDP-20x Blu-ray players over their Telnet interface.
It can send commands directly from the command line, run an interactive
remote, or run as a bridge daemon that exposes players over MQTT and HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetSilentMode(false)
			logger.SetLevel("debug")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(bridgeCmd)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
