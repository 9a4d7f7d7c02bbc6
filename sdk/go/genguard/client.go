// Package genguard is a Go client for the genguard HTTP API. It surfaces the
// rate-limit headers and tells throttling apart from an exhausted quota.
package genguard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrThrottled matches a 429 from the sliding-window limiter.
	ErrThrottled = errors.New("genguard: request throttled")
	// ErrQuotaExhausted matches a 429 from the daily usage quota.
	ErrQuotaExhausted = errors.New("genguard: daily quota exhausted")
)

// RateLimit is what the server reported about the caller's rolling window.
// Fields are zero when the headers were absent.
type RateLimit struct {
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	RateLimit  RateLimit
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genguard: %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match ErrThrottled and ErrQuotaExhausted. Both are 429s;
// only the throttling response carries Retry-After.
func (e *APIError) Is(target error) bool {
	if e.StatusCode != http.StatusTooManyRequests {
		return false
	}
	switch target {
	case ErrThrottled:
		return e.RateLimit.RetryAfter > 0
	case ErrQuotaExhausted:
		return e.RateLimit.RetryAfter == 0
	}
	return false
}

// Image is the create-image result.
type Image struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url,omitempty"`
	Sizes    []string `json:"sizes"`
	Prompt   string   `json:"prompt"`
}

// ImageVariant is one stored size of a gallery image.
type ImageVariant struct {
	Filename string `json:"filename"`
	Suffix   string `json:"suffix"`
	URL      string `json:"url"`
}

// GalleryImage is one gallery entry.
type GalleryImage struct {
	Name           string         `json:"name"`
	URL            string         `json:"url,omitempty"`
	AvailableSizes []ImageVariant `json:"availableSizes"`
	Timestamp      int64          `json:"timestamp"`
}

// GalleryPage is one page of list-images.
type GalleryPage struct {
	Images     []GalleryImage `json:"images"`
	Pagination struct {
		Page        int  `json:"page"`
		Limit       int  `json:"limit"`
		HasMore     bool `json:"hasMore"`
		TotalImages int  `json:"totalImages"`
		TotalPages  int  `json:"totalPages"`
	} `json:"pagination"`
}

// Client talks to one genguard deployment. It is safe for concurrent use.
type Client struct {
	baseURL     string
	fingerprint string
	httpClient  *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFingerprint sends fp as x-fingerprint so limits follow the device
// rather than its network address.
func WithFingerprint(fp string) Option {
	return func(c *Client) { c.fingerprint = fp }
}

// NewClient creates a client for baseURL, e.g. "https://genguard.example".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateImage runs the guarded generation. source is "custom" or "suggestion".
func (c *Client) CreateImage(ctx context.Context, prompt, source string) (*Image, RateLimit, error) {
	var out Image
	rl, err := c.do(ctx, http.MethodPost, "/api/create-image", map[string]string{
		"rawPrompt": prompt,
		"source":    source,
	}, &out)
	if err != nil {
		return nil, rl, err
	}
	return &out, rl, nil
}

// ListImages fetches one gallery page. Non-positive values use the server defaults.
func (c *Client) ListImages(ctx context.Context, page, limit int) (*GalleryPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/list-images"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out GalleryPage
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns a prompt suggestion.
func (c *Client) Suggest(ctx context.Context) (string, error) {
	var out struct {
		Suggestion string `json:"suggestion"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/generate-suggestion", nil, &out); err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (RateLimit, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return RateLimit{}, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return RateLimit{}, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.fingerprint != "" {
		req.Header.Set("x-fingerprint", c.fingerprint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RateLimit{}, err
	}
	defer resp.Body.Close()

	rl := parseRateLimit(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RateLimit: rl}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Message = errBody.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return rl, apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return rl, fmt.Errorf("genguard: decode response: %w", err)
	}
	return rl, nil
}

func parseRateLimit(h http.Header) RateLimit {
	var rl RateLimit
	rl.Limit, _ = strconv.ParseInt(h.Get("X-RateLimit-Limit"), 10, 64)
	rl.Remaining, _ = strconv.ParseInt(h.Get("X-RateLimit-Remaining"), 10, 64)
	if secs, err := strconv.ParseInt(h.Get("Retry-After"), 10, 64); err == nil && secs > 0 {
		rl.RetryAfter = time.Duration(secs) * time.Second
	}
	return rl
}
