package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/aicrew/types"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Generate(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "generated text"}},
			},
		})
	})

	c, err := NewClient(srv.URL, "test-key", "test-model")
	require.NoError(t, err)
	assert.Equal(t, "test-model", c.Model())

	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
}

func TestClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusBadGateway, retryable: true},
		{name: "bad request", status: http.StatusBadRequest, retryable: false},
		{name: "unauthorized", status: http.StatusUnauthorized, retryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "upstream unhappy"},
				})
			})

			c, err := NewClient(srv.URL, "", "test-model")
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "hello")
			require.Error(t, err)
			assert.Equal(t, types.ErrGenerate, types.CodeOf(err))
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
			assert.Contains(t, err.Error(), "upstream unhappy")
		})
	}
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	c, err := NewClient(srv.URL, "", "test-model")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, types.ErrGenerate, types.CodeOf(err))
}

func TestClient_ContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	})
	defer close(blocked)

	c, err := NewClient(srv.URL, "", "test-model")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Generate(ctx, "hello")
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "key", "model")
	require.Error(t, err)
	_, err = NewClient("http://localhost", "key", " ")
	require.Error(t, err)
}
