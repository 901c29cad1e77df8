package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe-cli/client"
	"github.com/meetscribe/meetscribe-cli/config"
)

// NewMeetingsCommand creates the meetings command group.
func NewMeetingsCommand(deps *Deps) *cobra.Command {
	meetingsCmd := &cobra.Command{
		Use:   "meetings",
		Short: "Inspect meetings known to the service",
	}
	meetingsCmd.AddCommand(newMeetingsListCommand(deps))
	return meetingsCmd
}

func newMeetingsListCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meetings and their lifecycle status",
		Long: `List the meetings known to the transcription service, newest first,
with the current bot lifecycle status for each.

Examples:
  # Human-readable table
  meetscribe meetings list

  # Machine-readable
  meetscribe meetings list --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.requireAPI()
			if err != nil {
				return err
			}

			meetings, err := api.ListMeetings(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing meetings: %w", err)
			}

			return renderMeetings(deps, meetings)
		},
	}
}

func renderMeetings(deps *Deps, meetings []client.Meeting) error {
	if deps.outputFormat() != config.OutputFormatText {
		return renderStructured(deps.out(), deps.outputFormat(), meetings)
	}

	if len(meetings) == 0 {
		fmt.Fprintln(deps.out(), "No meetings found.")
		return nil
	}

	w := tabwriter.NewWriter(deps.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLATFORM\tMEETING\tSTATUS\tSTARTED")
	for _, m := range meetings {
		started := m.StartedAt
		if started == "" {
			started = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Platform, m.NativeID, m.Status, started)
	}
	return w.Flush()
}
