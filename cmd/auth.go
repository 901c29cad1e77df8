package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meetscribe/meetscribe-cli/credentials"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand(deps *Deps) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API key",
		Long: `Manage the API key for the transcription service.

The key is stored encrypted at rest in ~/.meetscribe/credentials.yaml; the
encryption key lives in the system keyring. MEETSCRIBE_API_KEY overrides the
stored key when set.`,
	}
	authCmd.AddCommand(newAuthSetCommand(deps))
	authCmd.AddCommand(newAuthClearCommand(deps))
	authCmd.AddCommand(newAuthStatusCommand(deps))
	return authCmd
}

func newAuthSetCommand(deps *Deps) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key",
		Long: `Store the API key for the transcription service.

Examples:
  # Prompt for the key (hidden input)
  meetscribe auth set

  # Provide the key directly
  meetscribe auth set --api-key sk-live-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			key := apiKey
			if key == "" {
				key, err = promptForAPIKey()
				if err != nil {
					return fmt.Errorf("reading API key: %w", err)
				}
			}
			if key == "" {
				return fmt.Errorf("no API key provided")
			}

			creds := &credentials.Credentials{APIKey: key}
			if deps.Config != nil {
				creds.ServerURL = deps.Config.ServerURL
			}
			if err := store.Save(creds); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}

			fmt.Fprintf(deps.out(), "API key stored (%s)\n", credentials.MaskAPIKey(key))
			fmt.Fprintf(deps.out(), "Encryption key: %s\n", store.KeyDescription())
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to store (prompted when omitted)")
	return cmd
}

func newAuthClearCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("clearing credentials: %w", err)
			}
			fmt.Fprintln(deps.out(), "Stored API key removed.")
			return nil
		},
	}
}

func newAuthStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the API key comes from",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envKey := os.Getenv("MEETSCRIBE_API_KEY"); envKey != "" {
				fmt.Fprintf(deps.out(), "API key: %s (from MEETSCRIBE_API_KEY)\n", credentials.MaskAPIKey(envKey))
				return nil
			}

			store, err := credentials.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			creds, err := store.Load()
			if err != nil {
				if errors.Is(err, credentials.ErrNoCredentials) {
					fmt.Fprintln(deps.out(), "No API key configured.")
					return nil
				}
				return fmt.Errorf("loading credentials: %w", err)
			}

			fmt.Fprintf(deps.out(), "API key: %s (stored)\n", credentials.MaskAPIKey(creds.APIKey))
			if creds.ServerURL != "" {
				fmt.Fprintf(deps.out(), "Server:  %s\n", creds.ServerURL)
			}
			fmt.Fprintf(deps.out(), "Updated: %s\n", creds.LastUpdated.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

// promptForAPIKey reads the API key with terminal echo disabled, falling
// back to plain input when no terminal is attached.
func promptForAPIKey() (string, error) {
	fmt.Print("API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err == nil {
		return strings.TrimSpace(string(keyBytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
