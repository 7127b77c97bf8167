// Package genai is the client for the external text-generation service.
// It has no JSON awareness beyond the transport envelope: callers receive the
// raw generated text and decide what to make of it.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"riskeval/internal/common/config"
	"riskeval/internal/common/logger"
)

// TransportError covers network failures, timeouts and authentication
// failures against the generation service. The client performs no retries;
// retry policy belongs to the stage executor.
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("genai transport: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("genai transport: %s", e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client sends a prompt plus structured input data to the generation service
// and returns the raw generated text.
type Client interface {
	Generate(ctx context.Context, prompt string, input map[string]interface{}) (string, error)
}

// HTTPClient is the production Client over the generation service's HTTP API.
type HTTPClient struct {
	cfg    config.GenAIConfig
	client *http.Client
	logger logger.Logger
}

func NewHTTPClient(cfg config.GenAIConfig, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		client: &http.Client{
			// No client-level timeout; per-call deadlines come from the context.
		},
		logger: log.With(map[string]interface{}{
			"component": "genai-client",
		}),
	}
}

type generateRequest struct {
	Model       string                 `json:"model,omitempty"`
	Prompt      string                 `json:"prompt"`
	Input       map[string]interface{} `json:"input,omitempty"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate implements Client. Every failure mode maps to a TransportError so
// the caller has a single taxonomy to absorb.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, input map[string]interface{}) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		Input:       input,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", &TransportError{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", &TransportError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &TransportError{Reason: "timeout", Err: ctx.Err()}
		}
		return "", &TransportError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &TransportError{Reason: fmt.Sprintf("authentication failed (status %d)", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &TransportError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var apiResponse generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", &TransportError{Reason: "decode response envelope", Err: err}
	}

	c.logger.Debug("generation call completed", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
		"chars":      len(apiResponse.Text),
	})

	return apiResponse.Text, nil
}
