// Package upstream is the HTTP client for the image generation service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/pkg/logger"
)

var _ service.ImageUpstream = (*Client)(nil)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// StatusError is returned for any non-2xx reply.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks JSON to the generation service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     logger.Logger
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

type styleBody struct {
	Style string `json:"style"`
}

type suggestionBody struct {
	Suggestion string `json:"suggestion"`
}

// NewClient creates a client whose transport is traced with otelhttp.
func NewClient(cfg config.UpstreamConfig, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  log.WithComponent("upstream"),
	}, nil
}

// OptimizePrompt rewrites a user prompt. The service answers with the
// insufficient_detail marker for prompts it cannot improve.
func (c *Client) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodPost, "/v1/prompts/optimize", promptBody{Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Prompt), nil
}

// GenerateImage renders prompt and stores the result.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*models.GeneratedImage, error) {
	var out models.GeneratedImage
	if err := c.do(ctx, http.MethodPost, "/v1/images", promptBody{Prompt: prompt}, &out); err != nil {
		return nil, err
	}
	if out.Filename == "" {
		return nil, fmt.Errorf("upstream returned an image without a filename")
	}
	return &out, nil
}

// SuggestPrompt asks for a prompt in the given artistic style.
func (c *Client) SuggestPrompt(ctx context.Context, style string) (string, error) {
	var out suggestionBody
	if err := c.do(ctx, http.MethodPost, "/v1/suggestions", styleBody{Style: style}, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Suggestion), nil
}

// ListImages returns every stored blob.
func (c *Client) ListImages(ctx context.Context) ([]models.StoredBlob, error) {
	var out []models.StoredBlob
	if err := c.do(ctx, http.MethodGet, "/v1/images", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "Upstream call completed",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
