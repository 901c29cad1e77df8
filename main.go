// Package main provides the meetscribe CLI entry point.
// meetscribe follows live meeting transcripts and manages transcription bots.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe-cli/client"
	"github.com/meetscribe/meetscribe-cli/cmd"
	"github.com/meetscribe/meetscribe-cli/config"
	"github.com/meetscribe/meetscribe-cli/credentials"
	"github.com/meetscribe/meetscribe-cli/pkg/buildinfo"
	"github.com/meetscribe/meetscribe-cli/pkg/logging"
)

// Global flags and state.
var (
	serverURL    string
	timeout      time.Duration
	outputFormat string
	debug        bool

	// deps is shared by all subcommands and populated in PersistentPreRunE.
	deps = &cmd.Deps{}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meetscribe",
	Short: "Meetscribe CLI - live meeting transcripts from the terminal",
	Long: `meetscribe is the command-line interface for the meetscribe transcription
service. It dispatches transcription bots into meetings and follows their
live transcripts, reconciling in-progress and finalized segments as the
service revises them.

COMMON WORKFLOWS:
  Follow a meeting:  meetscribe bots request google_meet <id>  →  meetscribe tail google_meet <id>
  List meetings:     meetscribe meetings list
  First-time setup:  meetscribe config init  →  meetscribe auth set

DISCOVERY:
  meetscribe <command> --help   Subcommands, flags, and examples`,
	SilenceUsage: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Commands that work without configuration.
		switch c.Name() {
		case "version", "help", "completion":
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Command-line flags override file and environment.
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		if timeout != 0 {
			cfg.Timeout = timeout
		}
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
			if !cfg.OutputFormat.IsValid() {
				return fmt.Errorf("invalid output format %q (must be text, json, or yaml)", outputFormat)
			}
		}
		if debug {
			cfg.Debug = true
		}

		level := logging.LevelWarn
		if cfg.Debug {
			level = logging.LevelDebug
		}
		log := logging.NewLogger(&logging.Config{
			Level:     level,
			Component: "meetscribe",
			Output:    os.Stderr,
		})

		deps.Config = cfg
		deps.Log = log
		deps.Out = os.Stdout

		// An API client is built only when a key is available; commands that
		// need one report how to configure it.
		apiKey := resolveAPIKey(log)
		if apiKey != "" {
			api, err := client.NewFromConfig(cfg, apiKey, log)
			if err != nil {
				return fmt.Errorf("building API client: %w", err)
			}
			deps.API = api
		}

		return nil
	},
}

// resolveAPIKey returns the API key from the environment or the credential
// store, or empty when neither is configured.
func resolveAPIKey(log logging.Logger) string {
	if key := os.Getenv("MEETSCRIBE_API_KEY"); key != "" {
		return key
	}

	store, err := credentials.NewStore()
	if err != nil {
		log.Debug("credential store unavailable", logging.Err(err))
		return ""
	}
	key, err := store.ActiveAPIKey()
	if err != nil {
		if !errors.Is(err, credentials.ErrNoCredentials) {
			log.Warn("could not read stored API key", logging.Err(err))
		}
		return ""
	}
	return key
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(c *cobra.Command, args []string) {
		fmt.Printf("meetscribe %s\n", buildinfo.String())
		fmt.Printf("go: %s\n", buildinfo.Get().GoVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (e.g. https://transcripts.example.com)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (e.g. 30s, 1m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cmd.NewTailCommand(deps))
	rootCmd.AddCommand(cmd.NewBotsCommand(deps))
	rootCmd.AddCommand(cmd.NewMeetingsCommand(deps))
	rootCmd.AddCommand(cmd.NewConfigCommand(deps))
	rootCmd.AddCommand(cmd.NewAuthCommand(deps))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
