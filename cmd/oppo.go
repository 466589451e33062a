package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"otto/internal/logger"
	"otto/internal/oppo"
)

var (
	oppoHost  string
	oppoPort  int
	oppoDebug bool
)

// oppoTimeout bounds a direct command line exchange with the player.
const oppoTimeout = 10 * time.Second

var oppoCmd = &cobra.Command{
	Use:   "oppo",
	Short: "Control an Oppo UDP-20x player directly",
	Long: `Control an Oppo UDP-20x Blu-ray player over its Telnet interface.
Supports remote control actions, volume control and status queries.`,
}

var oppoSendCmd = &cobra.Command{
	Use:   "send [action]",
	Short: "Send a remote control action",
	Long: `Send a remote control action to the player.
Available actions: power_on, power_off, play, pause, stop, mute, etc.
Use 'otto oppo list' to see every action.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupOppoLogging()

		player := newOppoPlayer()
		ctx, cancel := context.WithTimeout(cmd.Context(), oppoTimeout)
		defer cancel()

		log.Info().
			Str("host", oppoHost).
			Str("action", args[0]).
			Msg("Sending remote control action")

		reply, err := player.SendAction(ctx, args[0])
		if err != nil {
			log.Error().Err(err).Msg("Failed to send action")
			return err
		}

		cmd.Println(reply)
		return nil
	},
}

var oppoStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the player state",
	Long:  `Query power, volume and playback status and print a JSON snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupOppoLogging()

		player := newOppoPlayer()
		ctx, cancel := context.WithTimeout(cmd.Context(), oppoTimeout)
		defer cancel()

		state := player.Poll(ctx)

		prettyJSON, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render state: %w", err)
		}

		cmd.Println(string(prettyJSON))
		return nil
	},
}

var oppoVolumeCmd = &cobra.Command{
	Use:   "volume [0-100]",
	Short: "Set the player volume",
	Long: `Set the player volume to an absolute level between 0 and 100.
The command confirms the level the player reports back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupOppoLogging()

		var volume int
		if _, err := fmt.Sscanf(args[0], "%d", &volume); err != nil {
			return fmt.Errorf("volume must be a number between 0 and 100: %s", args[0])
		}

		player := newOppoPlayer()
		ctx, cancel := context.WithTimeout(cmd.Context(), oppoTimeout)
		defer cancel()

		level, err := player.SetVolume(ctx, volume)
		if err != nil {
			log.Error().Err(err).Msg("Failed to set volume")
			return err
		}

		cmd.Printf("Volume set to %d\n", int(level*100))
		return nil
	},
}

var oppoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available remote actions",
	Long:  `List every remote control action the player accepts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := make([]string, 0, len(oppo.Actions()))
		for _, action := range oppo.Actions() {
			names = append(names, string(action))
		}
		sort.Strings(names)

		cmd.Println("Available remote control actions:")
		for _, name := range names {
			cmd.Printf("  %s\n", name)
		}
		return nil
	},
}

func setupOppoLogging() {
	if oppoDebug {
		logger.SetSilentMode(false)
		logger.SetLevel("debug")
	}
}

func newOppoPlayer() *oppo.Player {
	return oppo.NewPlayer(oppoHost, oppo.WithPort(oppoPort))
}

func init() {
	oppoCmd.PersistentFlags().StringVarP(&oppoHost, "host", "H", "", "Player host address")
	oppoCmd.PersistentFlags().IntVarP(&oppoPort, "port", "p", oppo.DefaultPort, "Player Telnet port")
	oppoCmd.PersistentFlags().BoolVarP(&oppoDebug, "debug", "d", false, "Enable debug logging")

	oppoSendCmd.MarkFlagRequired("host")
	oppoStatusCmd.MarkFlagRequired("host")
	oppoVolumeCmd.MarkFlagRequired("host")

	oppoCmd.AddCommand(oppoSendCmd)
	oppoCmd.AddCommand(oppoStatusCmd)
	oppoCmd.AddCommand(oppoVolumeCmd)
	oppoCmd.AddCommand(oppoListCmd)

	rootCmd.AddCommand(oppoCmd)
}
