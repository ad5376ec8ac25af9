package transcribe

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

	"ticketdesk/internal/desk"
	"ticketdesk/internal/services"
)

const (
	DefaultBaseURL = "https://api.assemblyai.com"

	defaultPollInterval = 3 * time.Second
	defaultTimeout      = 10 * time.Minute
	requestTimeout      = 60 * time.Second

	statusCompleted = "completed"
	statusError     = "error"
)

// Config captures the runtime settings for the transcription service.
type Config struct {
	BaseURL             string
	PollIntervalSeconds int
	TimeoutSeconds      int
}

// Request describes one transcription.
type Request struct {
	APIKey        string
	Audio         io.Reader
	SpeakerLabels bool
	Summarization bool
}

// Result is the transcript returned to callers.
type Result struct {
	Text       string           `json:"text"`
	Utterances []desk.Utterance `json:"utterances,omitempty"`
	Summary    string           `json:"summary,omitempty"`
}

// JobError is a transcript the service accepted but could not complete.
type JobError struct {
	ID      string
	Message string
}

func (e *JobError) Error() string {
	return e.Message
}

// Client talks to the AssemblyAI v2 API.
type Client struct {
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPollInterval overrides how often job status is checked.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		pollInterval: defaultPollInterval,
		timeout:      defaultTimeout,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
	if cfg.PollIntervalSeconds > 0 {
		client.pollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	}
	if cfg.TimeoutSeconds > 0 {
		client.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = DefaultBaseURL
	}
	return client
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	Summarization bool   `json:"summarization,omitempty"`
	SummaryModel  string `json:"summary_model,omitempty"`
	SummaryType   string `json:"summary_type,omitempty"`
}

type transcriptResponse struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Text       string           `json:"text"`
	Utterances []desk.Utterance `json:"utterances"`
	Summary    string           `json:"summary"`
	Error      string           `json:"error"`
}

// Transcribe uploads the audio, starts a job and blocks until it finishes,
// the configured timeout elapses, or ctx is cancelled.
func (c *Client) Transcribe(ctx context.Context, req Request) (Result, error) {
	apiKey := strings.TrimSpace(req.APIKey)
	if req.Audio == nil {
		return Result{}, services.Wrap(services.ErrValidation, "transcribe", "validate", "no audio file provided", nil)
	}
	if apiKey == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transcribe", "validate", "no api key provided", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	uploadURL, err := c.upload(ctx, apiKey, req.Audio)
	if err != nil {
		return Result{}, err
	}

	job := transcriptRequest{AudioURL: uploadURL, SpeakerLabels: req.SpeakerLabels}
	if req.Summarization {
		job.Summarization = true
		job.SummaryModel = "informative"
		job.SummaryType = "bullets"
	}
	var created transcriptResponse
	if err := c.doJSON(ctx, http.MethodPost, apiKey, "v2/transcript", job, &created); err != nil {
		return Result{}, services.Wrap(services.ErrUpstream, "transcribe", "create job", "", err)
	}
	if created.ID == "" {
		return Result{}, services.Wrap(services.ErrUpstream, "transcribe", "create job", "response missing id", nil)
	}

	transcript, err := c.wait(ctx, apiKey, created)
	if err != nil {
		return Result{}, err
	}

	result := Result{Text: transcript.Text}
	if req.SpeakerLabels && len(transcript.Utterances) > 0 {
		result.Utterances = transcript.Utterances
	}
	if req.Summarization && transcript.Summary != "" {
		result.Summary = transcript.Summary
	}
	return result, nil
}

func (c *Client) upload(ctx context.Context, apiKey string, audio io.Reader) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "v2", "upload")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "upload", "build url", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, audio)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "upload", "new request", err)
	}
	httpReq.Header.Set("Authorization", apiKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	var uploaded struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.send(httpReq, &uploaded); err != nil {
		return "", services.Wrap(services.ErrUpstream, "transcribe", "upload", "", err)
	}
	if uploaded.UploadURL == "" {
		return "", services.Wrap(services.ErrUpstream, "transcribe", "upload", "response missing upload_url", nil)
	}
	return uploaded.UploadURL, nil
}

func (c *Client) wait(ctx context.Context, apiKey string, transcript transcriptResponse) (transcriptResponse, error) {
	path := "v2/transcript/" + url.PathEscape(transcript.ID)
	for {
		switch transcript.Status {
		case statusCompleted:
			return transcript, nil
		case statusError:
			message := strings.TrimSpace(transcript.Error)
			if message == "" {
				message = "transcription failed"
			}
			return transcript, services.Wrap(services.ErrUpstream, "transcribe", "poll", "", &JobError{ID: transcript.ID, Message: message})
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return transcript, services.Wrap(services.ErrTimeout, "transcribe", "poll", "job "+transcript.ID, ctx.Err())
		case <-timer.C:
		}

		var next transcriptResponse
		if err := c.doJSON(ctx, http.MethodGet, apiKey, path, nil, &next); err != nil {
			return transcript, services.Wrap(services.ErrUpstream, "transcribe", "poll", "job "+transcript.ID, err)
		}
		if next.ID == "" {
			next.ID = transcript.ID
		}
		transcript = next
	}
}

func (c *Client) doJSON(ctx context.Context, method, apiKey, path string, body any, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d: %s", resp.StatusCode, apiErrorMessage(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiErrorMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
