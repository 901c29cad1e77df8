package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe-cli/client"
	"github.com/meetscribe/meetscribe-cli/config"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
)

// parseTarget builds a meeting reference from platform and native id args.
func parseTarget(platform, nativeID string) (meeting.Ref, error) {
	ref := meeting.Ref{Platform: meeting.Platform(platform), NativeID: nativeID}
	if err := ref.Validate(); err != nil {
		return meeting.Ref{}, fmt.Errorf("%w (platforms: %s, %s, %s)", err,
			meeting.PlatformGoogleMeet, meeting.PlatformZoom, meeting.PlatformTeams)
	}
	return ref, nil
}

// NewBotsCommand creates the bots command group.
func NewBotsCommand(deps *Deps) *cobra.Command {
	botsCmd := &cobra.Command{
		Use:   "bots",
		Short: "Dispatch and stop transcription bots",
	}
	botsCmd.AddCommand(newBotsRequestCommand(deps))
	botsCmd.AddCommand(newBotsStopCommand(deps))
	return botsCmd
}

func newBotsRequestCommand(deps *Deps) *cobra.Command {
	var (
		botName  string
		language string
	)

	cmd := &cobra.Command{
		Use:   "request <platform> <native-meeting-id>",
		Short: "Send a transcription bot into a meeting",
		Long: `Ask the service to send a transcription bot into a meeting.

The meeting starts in the requested state; its progress (joining, awaiting
admission, active) arrives on the live stream and via 'meetscribe meetings list'.

Examples:
  meetscribe bots request google_meet abc-defg-hij
  meetscribe bots request zoom 987654321 --bot-name "Scribe" --language en-US`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.requireAPI()
			if err != nil {
				return err
			}

			ref, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}

			m, err := api.RequestBot(cmd.Context(), client.BotRequest{
				Platform: ref.Platform,
				NativeID: ref.NativeID,
				BotName:  botName,
				Language: language,
			})
			if err != nil {
				return fmt.Errorf("requesting bot: %w", err)
			}

			if deps.outputFormat() != config.OutputFormatText {
				return renderStructured(deps.out(), deps.outputFormat(), m)
			}
			fmt.Fprintf(deps.out(), "Bot requested for %s (meeting %s, status %s)\n", ref, m.ID, m.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&botName, "bot-name", "", "display name the bot joins with")
	cmd.Flags().StringVar(&language, "language", "", "expected spoken language (BCP-47, e.g. en-US)")
	return cmd
}

func newBotsStopCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <platform> <native-meeting-id>",
		Short: "Remove the bot from a meeting",
		Long: `Ask the service to remove its bot from a meeting. The meeting reaches a
terminal status once the bot has left.

Examples:
  meetscribe bots stop google_meet abc-defg-hij`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.requireAPI()
			if err != nil {
				return err
			}

			ref, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}

			if err := api.StopBot(cmd.Context(), ref); err != nil {
				return fmt.Errorf("stopping bot: %w", err)
			}

			fmt.Fprintf(deps.out(), "Bot stop requested for %s\n", ref)
			return nil
		},
	}
}
