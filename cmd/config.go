package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe-cli/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(deps *Deps) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize CLI configuration",
	}
	configCmd.AddCommand(newConfigShowCommand(deps))
	configCmd.AddCommand(newConfigInitCommand(deps))
	return configCmd
}

func newConfigShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after merging defaults, the config file,
environment variables, and command-line flags.

Examples:
  meetscribe config show
  meetscribe config show --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if cfg == nil {
				cfg = config.DefaultConfig()
			}

			if deps.outputFormat() != config.OutputFormatText {
				return renderStructured(deps.out(), deps.outputFormat(), cfg)
			}

			path, _ := config.ConfigPath()
			fmt.Fprintf(deps.out(), "Config file:   %s\n", path)
			fmt.Fprintf(deps.out(), "Server URL:    %s\n", cfg.ServerURL)
			fmt.Fprintf(deps.out(), "Timeout:       %s\n", cfg.Timeout)
			fmt.Fprintf(deps.out(), "Output format: %s\n", cfg.OutputFormat)
			fmt.Fprintf(deps.out(), "Debug:         %t\n", cfg.Debug)
			if cfg.Stream.HeartbeatInterval > 0 {
				fmt.Fprintf(deps.out(), "Heartbeat:     %s\n", cfg.Stream.HeartbeatInterval)
			}
			if cfg.Stream.ReconnectMaxAttempts > 0 {
				fmt.Fprintf(deps.out(), "Reconnects:    %d max\n", cfg.Stream.ReconnectMaxAttempts)
			}
			return nil
		},
	}
}

func newConfigInitCommand(deps *Deps) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a config file with defaults to ~/.meetscribe/config.yaml
(or $MEETSCRIBE_CONFIG_DIR/config.yaml). Existing settings are overwritten.

Examples:
  meetscribe config init
  meetscribe config init --server https://transcripts.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			path, _ := config.ConfigPath()
			fmt.Fprintf(deps.out(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "server base URL to write into the config")
	return cmd
}
