// Package minimax implements the remote video engine client. Submissions
// either complete synchronously or return a task ID that the pipeline polls
// until completion, failure, or budget exhaustion.
package minimax

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

	"animator/internal/domain"
	"animator/internal/infra"
)

const (
	videoModel = "video-01"
	videoFPS   = 24
)

// actionPrompts maps animation actions to generation prompts.
var actionPrompts = map[domain.Action]string{
	domain.ActionTurn: "The person slowly turns around to show the outfit from different angles, smooth rotation movement",
	domain.ActionWave: "The person waves their hand in a friendly greeting gesture while wearing the outfit",
	domain.ActionWalk: "The person takes a few steps forward in a natural walking motion, showing the outfit in movement",
}

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     infra.Logger
}

// Client talks to the video engine's generations API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

// NewClient constructs a video engine client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.minimax.chat/v1"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

type generationRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	Image       string `json:"image"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspect_ratio"`
	Quality     string `json:"quality"`
	FPS         int    `json:"fps"`
}

type generationResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	URL      string `json:"url"`
	Error    string `json:"error"`
}

func (r generationResponse) artifactURL() string {
	if r.VideoURL != "" {
		return r.VideoURL
	}
	return r.URL
}

// Submit starts a video generation. A response carrying a video URL completes
// synchronously; a processing response yields a task ID for polling.
func (c *Client) Submit(ctx context.Context, req domain.Request) (*domain.SubmitResult, error) {
	action := req.PrimaryAction()
	prompt, ok := actionPrompts[action]
	if !ok {
		prompt = actionPrompts[domain.ActionTurn]
	}

	payload := generationRequest{
		Model:       videoModel,
		Prompt:      prompt,
		Image:       req.InputRef,
		Duration:    effectiveDuration(req),
		AspectRatio: req.AspectRatio,
		Quality:     "high",
		FPS:         videoFPS,
	}

	c.logger.Info().
		Str("action", string(action)).
		Int("duration", payload.Duration).
		Msg("minimax: submitting video generation")

	var resp generationResponse
	if err := c.post(ctx, "/video/generations", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "processing" && resp.ID != "" {
		return &domain.SubmitResult{TaskID: resp.ID}, nil
	}
	if resp.Status == "failed" {
		return nil, fmt.Errorf("minimax: generation rejected: %s", resp.Error)
	}
	if resp.artifactURL() == "" {
		return nil, fmt.Errorf("minimax: no video URL in response")
	}
	return &domain.SubmitResult{
		Artifact: &domain.Artifact{ArtifactURL: resp.artifactURL()},
	}, nil
}

// Poll reports the state of an in-flight generation task. Any transport or
// non-200 failure is returned as an error the caller treats as transient.
func (c *Client) Poll(ctx context.Context, taskID string) (*domain.PollResult, error) {
	var resp generationResponse
	if err := c.get(ctx, "/video/generations/"+url.PathEscape(taskID), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "completed":
		if resp.artifactURL() == "" {
			return nil, fmt.Errorf("minimax: completed task %s has no video URL", taskID)
		}
		return &domain.PollResult{Status: domain.PollCompleted, ArtifactURL: resp.artifactURL()}, nil
	case "failed":
		detail := resp.Error
		if detail == "" {
			detail = "unknown error"
		}
		return &domain.PollResult{Status: domain.PollFailed, ErrDetail: detail}, nil
	default:
		return &domain.PollResult{Status: domain.PollProcessing}, nil
	}
}

// effectiveDuration clamps multi-action compositions to two seconds per
// action, capped at the maximum clip length.
func effectiveDuration(req domain.Request) int {
	if req.Kind == domain.KindCompose {
		d := 2 * len(req.Actions)
		if d > 6 {
			d = 6
		}
		if d < 3 {
			d = 3
		}
		return d
	}
	return req.DurationSeconds
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("minimax: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("minimax: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("minimax: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("minimax: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("minimax: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("minimax: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("minimax: decode response: %w", err)
	}
	return nil
}

var _ domain.Generator = (*Client)(nil)
