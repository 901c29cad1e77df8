package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe-cli/client"
	"github.com/meetscribe/meetscribe-cli/config"
	"github.com/meetscribe/meetscribe-cli/pkg/meeting"
	"github.com/meetscribe/meetscribe-cli/pkg/metrics"
	"github.com/meetscribe/meetscribe-cli/pkg/transcript"
)

// fakeAPI implements API for command tests.
type fakeAPI struct {
	meetings    []client.Meeting
	listErr     error
	requested   []client.BotRequest
	stopped     []meeting.Ref
	endpoint    client.StreamEndpoint
	endpointErr error
}

func (f *fakeAPI) ListMeetings(_ context.Context) ([]client.Meeting, error) {
	return f.meetings, f.listErr
}

func (f *fakeAPI) RequestBot(_ context.Context, req client.BotRequest) (*client.Meeting, error) {
	f.requested = append(f.requested, req)
	return &client.Meeting{
		ID:       "m-1",
		Platform: req.Platform,
		NativeID: req.NativeID,
		Status:   meeting.StatusRequested,
	}, nil
}

func (f *fakeAPI) StopBot(_ context.Context, ref meeting.Ref) error {
	f.stopped = append(f.stopped, ref)
	return nil
}

func (f *fakeAPI) FetchStreamEndpoint(_ context.Context) (client.StreamEndpoint, error) {
	return f.endpoint, f.endpointErr
}

func (f *fakeAPI) FetchTranscript(_ context.Context, _ meeting.Ref) ([]transcript.Segment, error) {
	return nil, nil
}

func testDeps(api API) (*Deps, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Deps{
		Config: config.DefaultConfig(),
		API:    api,
		Out:    out,
	}, out
}

func TestParseTarget(t *testing.T) {
	ref, err := parseTarget("google_meet", "abc-defg-hij")
	require.NoError(t, err)
	assert.Equal(t, meeting.PlatformGoogleMeet, ref.Platform)
	assert.Equal(t, "abc-defg-hij", ref.NativeID)

	_, err = parseTarget("irc", "chan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google_meet")

	_, err = parseTarget("zoom", "")
	require.Error(t, err)
}

func TestMeetingsListTextOutput(t *testing.T) {
	api := &fakeAPI{meetings: []client.Meeting{
		{ID: "m-2", Platform: meeting.PlatformZoom, NativeID: "987", Status: meeting.StatusActive, StartedAt: "2025-01-01T10:00:00Z"},
		{ID: "m-1", Platform: meeting.PlatformGoogleMeet, NativeID: "abc", Status: meeting.StatusCompleted},
	}}
	deps, out := testDeps(api)

	cmd := NewMeetingsCommand(deps)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "m-2")
	assert.Contains(t, out.String(), "active")
	assert.Contains(t, out.String(), "completed")
}

func TestMeetingsListJSONOutput(t *testing.T) {
	api := &fakeAPI{meetings: []client.Meeting{
		{ID: "m-1", Platform: meeting.PlatformZoom, NativeID: "987", Status: meeting.StatusActive},
	}}
	deps, out := testDeps(api)
	deps.Config.OutputFormat = config.OutputFormatJSON

	cmd := NewMeetingsCommand(deps)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `"id": "m-1"`)
	assert.Contains(t, out.String(), `"status": "active"`)
}

func TestMeetingsListEmptyText(t *testing.T) {
	deps, out := testDeps(&fakeAPI{})

	cmd := NewMeetingsCommand(deps)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "No meetings found")
}

func TestMeetingsListSurfacesError(t *testing.T) {
	deps, _ := testDeps(&fakeAPI{listErr: errors.New("boom")})

	cmd := NewMeetingsCommand(deps)
	cmd.SetArgs([]string{"list"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBotsRequest(t *testing.T) {
	api := &fakeAPI{}
	deps, out := testDeps(api)

	cmd := NewBotsCommand(deps)
	cmd.SetArgs([]string{"request", "google_meet", "abc-defg-hij", "--bot-name", "Scribe"})
	require.NoError(t, cmd.Execute())

	require.Len(t, api.requested, 1)
	assert.Equal(t, meeting.PlatformGoogleMeet, api.requested[0].Platform)
	assert.Equal(t, "Scribe", api.requested[0].BotName)
	assert.Contains(t, out.String(), "Bot requested")
}

func TestBotsRequestRejectsBadPlatform(t *testing.T) {
	api := &fakeAPI{}
	deps, _ := testDeps(api)

	cmd := NewBotsCommand(deps)
	cmd.SetArgs([]string{"request", "irc", "chan"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	require.Error(t, cmd.Execute())
	assert.Empty(t, api.requested)
}

func TestBotsStop(t *testing.T) {
	api := &fakeAPI{}
	deps, out := testDeps(api)

	cmd := NewBotsCommand(deps)
	cmd.SetArgs([]string{"stop", "zoom", "987654321"})
	require.NoError(t, cmd.Execute())

	require.Len(t, api.stopped, 1)
	assert.Equal(t, meeting.PlatformZoom, api.stopped[0].Platform)
	assert.Contains(t, out.String(), "Bot stop requested")
}

func TestCommandsRequireAPI(t *testing.T) {
	deps, _ := testDeps(nil)

	for _, args := range [][]string{
		{"list"},
	} {
		cmd := NewMeetingsCommand(deps)
		cmd.SetArgs(args)
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "meetscribe auth set")
	}
}

func TestConfigShowText(t *testing.T) {
	t.Setenv("MEETSCRIBE_CONFIG_DIR", t.TempDir())
	deps, out := testDeps(nil)
	deps.Config.ServerURL = "https://transcripts.example.com"

	cmd := NewConfigCommand(deps)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "https://transcripts.example.com")
	assert.Contains(t, out.String(), "Output format: text")
}

func TestConfigInitWritesFile(t *testing.T) {
	t.Setenv("MEETSCRIBE_CONFIG_DIR", t.TempDir())
	deps, out := testDeps(nil)

	cmd := NewConfigCommand(deps)
	cmd.SetArgs([]string{"init", "--server", "https://transcripts.example.com"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Wrote")

	loaded, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://transcripts.example.com", loaded.ServerURL)
}

func TestConfigInitRejectsBadServer(t *testing.T) {
	t.Setenv("MEETSCRIBE_CONFIG_DIR", t.TempDir())
	deps, _ := testDeps(nil)

	cmd := NewConfigCommand(deps)
	cmd.SetArgs([]string{"init", "--server", "ftp://nope"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	require.Error(t, cmd.Execute())
}

func TestTranscriptPrinter(t *testing.T) {
	out := &bytes.Buffer{}
	p := newTranscriptPrinter(out)

	p.render([]transcript.Segment{
		{AbsoluteStartTime: "2025-01-01T10:00:00Z", Text: "hello wor", Speaker: "Alice"},
	})
	assert.Contains(t, out.String(), "Alice: hello wor")

	// Revision reprints with a marker; unchanged lines stay quiet.
	out.Reset()
	p.render([]transcript.Segment{
		{AbsoluteStartTime: "2025-01-01T10:00:00Z", Text: "hello world", Speaker: "Alice"},
	})
	assert.Contains(t, out.String(), "~[")
	assert.Contains(t, out.String(), "hello world")

	out.Reset()
	p.render([]transcript.Segment{
		{AbsoluteStartTime: "2025-01-01T10:00:00Z", Text: "hello world", Speaker: "Alice"},
	})
	assert.Empty(t, out.String())
}

func TestFormatSegmentTime(t *testing.T) {
	assert.Equal(t, "10:00:05", formatSegmentTime("2025-01-01T10:00:05Z"))
	assert.Equal(t, "not-a-time", formatSegmentTime("not-a-time"))
}

func TestTailCommandHasMetricsAddrFlag(t *testing.T) {
	cmd := NewTailCommand(&Deps{})
	flag := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestMetricsHandlerExposesStreamCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewStreamMetrics(reg)
	m.ObserveFrame("transcript.mutable")
	m.ObserveMerged(3)

	srv := httptest.NewServer(metricsHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "meetscribe_stream_frames_total")
	assert.Contains(t, string(body), "meetscribe_transcript_segments_merged_total 3")
}
