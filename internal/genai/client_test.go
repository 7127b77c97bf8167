package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"riskeval/internal/common/config"
	"riskeval/internal/common/logger"
)

func testClient(baseURL string) *HTTPClient {
	return NewHTTPClient(config.GenAIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   256,
		Temperature: 0.3,
	}, logger.Nop())
}

func TestGenerate_Success(t *testing.T) {
	var gotRequest generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(map[string]string{"text": `{"ratios": {}}`})
	}))
	defer server.Close()

	text, err := testClient(server.URL).Generate(context.Background(), "analiza esto", map[string]interface{}{"doc": "x"})

	assert.NoError(t, err)
	assert.Equal(t, `{"ratios": {}}`, text)
	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, "analiza esto", gotRequest.Prompt)
	assert.Equal(t, 256, gotRequest.MaxTokens)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "prompt", nil)

	assert.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestGenerate_AuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			_, err := testClient(server.URL).Generate(context.Background(), "prompt", nil)

			assert.True(t, IsTransport(err))
			assert.Contains(t, err.Error(), "authentication failed")
		})
	}
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").Generate(context.Background(), "prompt", nil)

	assert.True(t, IsTransport(err))
}

func TestGenerate_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"text": "late"})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := testClient(server.URL).Generate(ctx, "prompt", nil)

	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "timeout")
}

func TestGenerate_BadEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "prompt", nil)

	assert.True(t, IsTransport(err))
}

func TestIsTransport(t *testing.T) {
	assert.True(t, IsTransport(&TransportError{Reason: "x"}))
	assert.True(t, IsTransport(fmt.Errorf("wrapped: %w", &TransportError{Reason: "x"})))
	assert.False(t, IsTransport(errors.New("plain")))
	assert.False(t, IsTransport(nil))
}
