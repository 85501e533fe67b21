package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Endpoint:          srv.URL,
		APIKey:            "test-key",
		Model:             "claude-test",
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestClientComplete(t *testing.T) {
	t.Run("returns completion text", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/messages", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

			var req messagesRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "claude-test", req.Model)
			assert.Equal(t, 600, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)

			json.NewEncoder(w).Encode(map[string]any{
				"content":     []map[string]string{{"type": "text", "text": `{"liability_clarity_score": 80}`}},
				"stop_reason": "end_turn",
			})
		})

		got, err := client.Complete(context.Background(), "score this case", 600)
		require.NoError(t, err)
		assert.Equal(t, `{"liability_clarity_score": 80}`, got)
	})

	t.Run("server errors classify as upstream unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		})

		_, err := client.Complete(context.Background(), "prompt", 100)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindUpstreamUnavailable, Classify(err))
	})

	t.Run("rejected credentials classify as configuration missing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		})

		_, err := client.Complete(context.Background(), "prompt", 100)
		require.Error(t, err)
		assert.Equal(t, domain.ErrKindConfigurationMissing, Classify(err))
	})

	t.Run("empty content yields empty text", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
		})

		got, err := client.Complete(context.Background(), "prompt", 100)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestNewClientValidation(t *testing.T) {
	t.Run("missing api key is a configuration error", func(t *testing.T) {
		_, err := NewClient(Config{Model: "claude-test"}, nil)
		require.ErrorIs(t, err, ErrMissingCredentials)
		assert.Equal(t, domain.ErrKindConfigurationMissing, Classify(err))
	})
}

func TestClassifyUnknownError(t *testing.T) {
	assert.Equal(t, domain.ErrKindUpstreamUnavailable, Classify(context.DeadlineExceeded))
}
