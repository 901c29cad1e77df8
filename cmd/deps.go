// Package cmd provides CLI commands for the meetscribe tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meetscribe/meetscribe-cli/client"
	"github.com/meetscribe/meetscribe-cli/config"
	"github.com/meetscribe/meetscribe-cli/pkg/logging"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// API is the slice of the HTTP client the commands use. *client.APIClient
// satisfies it; tests substitute fakes.
type API interface {
	ListMeetings(ctx context.Context) ([]client.Meeting, error)
	RequestBot(ctx context.Context, req client.BotRequest) (*client.Meeting, error)
	StopBot(ctx context.Context, ref meeting.Ref) error
	FetchStreamEndpoint(ctx context.Context) (client.StreamEndpoint, error)
	FetchTranscript(ctx context.Context, ref meeting.Ref) ([]transcript.Segment, error)
}

// Deps carries what commands need to run. Commands receive it at
// construction instead of reaching for globals.
type Deps struct {
	// Config is the loaded CLI configuration.
	Config *config.CLIConfig

	// API talks to the transcription service. Nil when the command was
	// invoked without credentials; commands that need it must check.
	API API

	// Out is where command output goes.
	Out io.Writer

	// Log receives diagnostics.
	Log logging.Logger
}

// out returns the output writer, defaulting to stdout.
func (d *Deps) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return os.Stdout
}

// logger returns the logger, defaulting to a nop logger.
func (d *Deps) logger() logging.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logging.NewNopLogger()
}

// outputFormat returns the configured output format.
func (d *Deps) outputFormat() config.OutputFormat {
	if d.Config == nil || d.Config.OutputFormat == "" {
		return config.DefaultOutputFormat
	}
	return d.Config.OutputFormat
}

// requireAPI returns the API client or an actionable error.
func (d *Deps) requireAPI() (API, error) {
	if d.API == nil {
		return nil, fmt.Errorf("no API credentials configured; run 'meetscribe auth set' or set MEETSCRIBE_API_KEY")
	}
	return d.API, nil
}

// renderStructured writes v as JSON or YAML.
func renderStructured(w io.Writer, format config.OutputFormat, v any) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		return yaml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}
