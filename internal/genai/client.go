// Package genai implements the remote image-composition engine used for
// try-on requests: the subject image and garment image are sent as inline
// parts and the engine returns the composed result inline. Completion is
// always synchronous; there is no task to poll.
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"animator/internal/domain"
	"animator/internal/fetch"
	"animator/internal/infra"
	"animator/internal/storage"
)

const tryonPrompt = "You are a virtual try-on assistant. Using the first image as the person " +
	"(preserve identity, pose, lighting, and background) and the second image as the garment, " +
	"compose a realistic, high-quality image of the person wearing the garment. " +
	"Respect garment texture, color, and prints; adapt folds and fit naturally. " +
	"Avoid altering the person's face, hair, or background beyond what is necessary for realism. " +
	"Return only the final composed image."

// Options controls how the image engine client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Fetcher    *fetch.Client
	Store      *storage.FileStore
	AssetBase  string
	Logger     infra.Logger
}

// Client provides a lightweight facade over the image engine so the pipeline
// can treat it as one more generator.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	fetcher    *fetch.Client
	store      *storage.FileStore
	assetBase  string
	logger     infra.Logger
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs an image engine client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image-preview"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		fetcher:    opts.Fetcher,
		store:      opts.Store,
		assetBase:  strings.TrimRight(opts.AssetBase, "/"),
		logger:     opts.Logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Submit downloads the subject and garment images, asks the engine for a
// composed result, persists it, and returns the artifact synchronously.
func (c *Client) Submit(ctx context.Context, req domain.Request) (*domain.SubmitResult, error) {
	person, personMime, err := c.fetcher.Bytes(ctx, req.InputRef)
	if err != nil {
		return nil, fmt.Errorf("genai: fetch subject image: %w", err)
	}
	garment, garmentMime, err := c.fetcher.Bytes(ctx, req.OverlayRef)
	if err != nil {
		return nil, fmt.Errorf("genai: fetch garment image: %w", err)
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: orDefault(personMime, "image/jpeg"), Data: base64.StdEncoding.EncodeToString(person)}},
				{InlineData: &inlineData{MimeType: orDefault(garmentMime, "image/jpeg"), Data: base64.StdEncoding.EncodeToString(garment)}},
				{Text: tryonPrompt},
			},
		}},
	}

	var response generateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), payload, &response); err != nil {
		return nil, err
	}

	data, mime := firstInlineImage(response)
	if len(data) == 0 {
		return nil, errors.New("genai: no image parts in response")
	}

	sum := sha256.Sum256(data)
	key := fmt.Sprintf("tryon/%s%s", hex.EncodeToString(sum[:16]), extensionForMIME(mime))
	savedKey, err := c.store.Write(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("genai: persist composed image: %w", err)
	}

	c.logger.Info().
		Str("subject_id", req.SubjectID).
		Str("model", c.model).
		Str("storage_key", savedKey).
		Msg("genai: composed try-on image")

	return &domain.SubmitResult{
		Artifact: &domain.Artifact{ArtifactURL: c.assetBase + "/" + savedKey},
	}, nil
}

// Poll is never reached: Submit always completes synchronously.
func (c *Client) Poll(context.Context, string) (*domain.PollResult, error) {
	return nil, errors.New("genai: no asynchronous tasks")
}

func (c *Client) invoke(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: encode request: %w", err)
	}
	endpoint := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("genai: invoke %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("genai: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("genai: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}

func firstInlineImage(resp generateContentResponse) ([]byte, string) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil || len(data) == 0 {
				continue
			}
			return data, p.InlineData.MimeType
		}
	}
	return nil, ""
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".png"
	}
}

var _ domain.Generator = (*Client)(nil)
