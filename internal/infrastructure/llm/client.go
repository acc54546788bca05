package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"ProcureAI/internal/config"
)

const maxBackoff = 5 * time.Second

// ChatClient calls an OpenAI-compatible chat completions API in JSON mode.
type ChatClient struct {
	endpoint    string
	model       string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  uint64
	backoffBase time.Duration
}

// NewChatClient builds a client from configuration.
func NewChatClient(cfg config.AIConfig) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &ChatClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:     rate.NewLimiter(limit, 1),
		maxRetries:  cfg.MaxRetries,
		backoffBase: 500 * time.Millisecond,
	}
}

// transientError marks failures worth retrying (network, 429, 5xx).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// CompleteJSON sends a system and user message and returns the raw message content.
func (c *ChatClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chat client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chat client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	backoff := retry.WithMaxRetries(c.maxRetries,
		retry.WithCappedDuration(maxBackoff, retry.NewExponential(c.backoffBase)))

	var content string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var callErr error
		content, callErr = c.complete(ctx, body)
		var transient *transientError
		if errors.As(callErr, &transient) {
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *ChatClient) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &transientError{err: fmt.Errorf("send chat request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", &transientError{err: statusErr}
		}
		return "", statusErr
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// stripCodeFence removes a Markdown ```json fence some models wrap output in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
