package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.UpstreamConfig{BaseURL: srv.URL + "/", APIKey: "secret"}, logger.NewNoopLogger())
	require.NoError(t, err)
	return c
}

func TestClient_OptimizePrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/prompts/optimize", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var in promptBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "a dog in a park", in.Prompt)

		_ = json.NewEncoder(w).Encode(promptBody{Prompt: "  Golden retriever in a sunny park  "})
	})

	out, err := c.OptimizePrompt(context.Background(), "a dog in a park")
	require.NoError(t, err)
	assert.Equal(t, "Golden retriever in a sunny park", out)
}

func TestClient_GenerateImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images", r.URL.Path)
		_, _ = w.Write([]byte(`{"filename":"Cat_1700000000000.png","url":"https://cdn/x.png","sizes":["Cat_1700000000000_small.webp"]}`))
	})

	img, err := c.GenerateImage(context.Background(), "Cat")
	require.NoError(t, err)
	assert.Equal(t, "Cat_1700000000000.png", img.Filename)
	assert.Equal(t, []string{"Cat_1700000000000_small.webp"}, img.Sizes)
}

func TestClient_GenerateImageWithoutFilename(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.GenerateImage(context.Background(), "Cat")
	assert.Error(t, err)
}

func TestClient_SuggestAndList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/suggestions":
			var in styleBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "Cubism", in.Style)
			_ = json.NewEncoder(w).Encode(suggestionBody{Suggestion: "a fractured violin on a table"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/images":
			_, _ = w.Write([]byte(`[{"name":"a_1.png","url":"https://cdn/a_1.png"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	suggestion, err := c.SuggestPrompt(context.Background(), "Cubism")
	require.NoError(t, err)
	assert.Equal(t, "a fractured violin on a table", suggestion)

	blobs, err := c.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, "a_1.png", blobs[0].Name)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("model overloaded"))
	})

	_, err := c.SuggestPrompt(context.Background(), "Impressionism")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.Equal(t, "model overloaded", statusErr.Body)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.UpstreamConfig{}, logger.NewNoopLogger())
	assert.Error(t, err)
}
