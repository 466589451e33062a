package cmd

import (
	"github.com/spf13/cobra"

	"otto/cmd/remote"
	"otto/internal/logger"
)

var (
	remoteHostFlag  string
	remoteDebugFlag bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Start the interactive remote control",
	Long: `Launch the interactive Terminal User Interface (TUI) remote control.
Connect to a player by address and drive it with keyboard shortcuts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if remoteDebugFlag {
			logger.SetSilentMode(false)
			logger.SetLevel("debug")
		} else {
			// The TUI owns the terminal, keep logging silent
			logger.SetSilentMode(true)
		}

		log := logger.New()
		log.Info().
			Bool("debug", remoteDebugFlag).
			Msg("Starting Otto remote interface")

		if err := remote.StartTUI(remoteHostFlag, remoteDebugFlag); err != nil {
			log.Error().Err(err).Msg("Failed to start TUI")
			return err
		}

		return nil
	},
}

func init() {
	remoteCmd.Flags().StringVarP(&remoteHostFlag, "host", "H", "", "Pre-fill the player host address")
	remoteCmd.Flags().BoolVar(&remoteDebugFlag, "debug", false, "Enable debug logging inside the TUI")
}
