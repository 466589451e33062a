package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"otto/internal/hub"
	"otto/internal/logger"
)

var (
	bridgeConfigPath string
	bridgeDebugFlag  bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Start the Otto bridge daemon",
	Long: `The Otto bridge is a daemon that polls the configured players, publishes
their state to an MQTT broker with Home Assistant discovery, journals state
transitions and serves a local HTTP API for direct control.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetSilentMode(false)
		if bridgeDebugFlag {
			logger.SetLevel("debug")
		} else {
			logger.SetLevel("info")
		}

		log := logger.New()
		log.Info().
			Str("config_path", bridgeConfigPath).
			Bool("debug", bridgeDebugFlag).
			Msg("Starting Otto bridge daemon")

		// First run: write a default config and let the user edit it
		if _, err := os.Stat(bridgeConfigPath); os.IsNotExist(err) {
			defaultConfig := hub.NewDefaultConfig()
			if err := hub.SaveConfig(defaultConfig, bridgeConfigPath); err != nil {
				log.Error().Err(err).Msg("Failed to create default config file")
				return fmt.Errorf("failed to create default config file: %w", err)
			}
			log.Info().
				Str("config_path", bridgeConfigPath).
				Msg("Created default configuration file. Please edit it with your settings.")
			return nil
		}

		daemon, err := hub.NewDaemon(bridgeConfigPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create bridge daemon")
			return fmt.Errorf("failed to create bridge daemon: %w", err)
		}

		// Start daemon (blocks until shutdown)
		if err := daemon.Start(); err != nil {
			log.Error().Err(err).Msg("Bridge daemon stopped with error")
			return fmt.Errorf("bridge daemon error: %w", err)
		}

		return nil
	},
}

var bridgeConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bridge configuration",
	Long:  `Generate or validate bridge configuration files.`,
}

var bridgeConfigGenerateCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with example settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := bridgeConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		defaultConfig := hub.NewDefaultConfig()
		if err := hub.SaveConfig(defaultConfig, configPath); err != nil {
			return fmt.Errorf("failed to save default config: %w", err)
		}

		cmd.Printf("Default configuration saved to: %s\n", configPath)
		cmd.Println("Please edit the file with your actual broker and player settings.")
		return nil
	},
}

var bridgeConfigValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate a bridge configuration file for syntax and required fields.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := bridgeConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		config, err := hub.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		cmd.Printf("Configuration file is valid: %s\n", configPath)
		cmd.Printf("MQTT broker: %s\n", config.MQTT.Broker)
		cmd.Printf("Configured players: %d\n", len(config.Devices))

		for _, player := range config.Devices {
			cmd.Printf("  - %s (%s) at %s:%d\n", player.ID, player.Name, player.Address, player.Port)
		}

		return nil
	},
}

func init() {
	bridgeCmd.Flags().StringVarP(&bridgeConfigPath, "config", "c", "otto.yml", "Path to bridge configuration file")
	bridgeCmd.Flags().BoolVarP(&bridgeDebugFlag, "debug", "d", false, "Enable debug logging")

	bridgeCmd.AddCommand(bridgeConfigCmd)
	bridgeConfigCmd.AddCommand(bridgeConfigGenerateCmd)
	bridgeConfigCmd.AddCommand(bridgeConfigValidateCmd)

	bridgeConfigGenerateCmd.Flags().StringVarP(&bridgeConfigPath, "config", "c", "otto.yml", "Path for generated configuration file")
	bridgeConfigValidateCmd.Flags().StringVarP(&bridgeConfigPath, "config", "c", "otto.yml", "Path to configuration file to validate")
}
