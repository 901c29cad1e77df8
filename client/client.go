// Package client provides the HTTP client for the meeting transcription API.
// It handles authentication, request plumbing, and error mapping; resource
// methods live in per-resource files (transcripts, bots, meetings, runtime).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetscribe/meetscribe-cli/config"
	apperrors "github.com/meetscribe/meetscribe-cli/pkg/errors"
	"github.com/meetscribe/meetscribe-cli/pkg/logging"
)

// Default client settings.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultUserAgent      = "meetscribe-cli"

	apiKeyHeader = "X-API-Key"
)

// Options configures the APIClient behavior.
type Options struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with each request.
	UserAgent string

	// HTTPClient overrides the underlying HTTP client. Mostly for tests.
	HTTPClient *http.Client

	// Logger receives request diagnostics. Nil discards them.
	Logger logging.Logger
}

// DefaultOptions returns Options with default values.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultRequestTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// APIClient talks to the transcription service's REST API.
type APIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	ua      string
	log     logging.Logger
}

// NewAPIClient creates a client for the given base URL. The API key is sent
// as the X-API-Key header on every request; an empty key is allowed and will
// surface as an unauthorized error from the server.
func NewAPIClient(baseURL, apiKey string, opts *Options) (*APIClient, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL is missing a host")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		ua:      opts.UserAgent,
		log:     log,
	}, nil
}

// NewFromConfig creates a client from CLI configuration. This is the
// canonical way CLI commands obtain a client.
func NewFromConfig(cfg *config.CLIConfig, apiKey string, log logging.Logger) (*APIClient, error) {
	opts := DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.Logger = log
	return NewAPIClient(cfg.ServerURL, apiKey, opts)
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// apiError carries the HTTP status and the server's error detail.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// errorBody is the error shape the service returns.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// do issues a JSON request and decodes the response into out (when out is
// non-nil). Non-2xx responses map to domain errors: 401/403 to
// ErrUnauthorized, 404 to ErrNotFound, anything else to an apiError.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	c.log.Debug("api request",
		logging.F("method", method),
		logging.F("path", path),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(method, path, resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// mapError converts a non-2xx response into a domain error.
func (c *APIClient) mapError(method, path string, resp *http.Response) error {
	var detail string
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		detail = body.Detail
		if detail == "" {
			detail = body.Message
		}
	}

	c.log.Debug("api error",
		logging.F("method", method),
		logging.F("path", path),
		logging.F("status", resp.StatusCode),
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if detail != "" {
			return fmt.Errorf("%s %s: %s: %w", method, path, detail, apperrors.ErrUnauthorized)
		}
		return fmt.Errorf("%s %s: %w", method, path, apperrors.ErrUnauthorized)
	case http.StatusNotFound:
		if detail != "" {
			return fmt.Errorf("%s %s: %s: %w", method, path, detail, apperrors.ErrNotFound)
		}
		return fmt.Errorf("%s %s: %w", method, path, apperrors.ErrNotFound)
	default:
		return fmt.Errorf("%s %s: %w", method, path, &apiError{
			Status:  resp.StatusCode,
			Message: detail,
		})
	}
}
