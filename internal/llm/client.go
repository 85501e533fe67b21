// Package llm provides the text-completion collaborator: a stateless client
// that scores one prompt per call against an Anthropic-compatible messages
// API, with per-process rate limiting and bounded request timeouts. Retry of
// transient failures is owned by the invoking activity's retry policy, not
// by this client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// CompletionClient is the completion-service contract consumed by the stage
// invoker: one prompt in, raw completion text out.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrMissingCredentials indicates the client was constructed without an API
// key. Surfaced as ConfigurationMissing, never retried.
var ErrMissingCredentials = errors.New("completion API key is not configured")

// UpstreamError captures a structured failure from the completion service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service error (status %d): %s", e.StatusCode, e.Message)
}

// Kind classifies the failure for the pipeline's error taxonomy. Rejected
// credentials are a configuration problem; everything else coming back from
// the wire is a transient upstream condition.
func (e *UpstreamError) Kind() domain.ErrorKind {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrKindConfigurationMissing
	default:
		return domain.ErrKindUpstreamUnavailable
	}
}

// Classify maps a completion-client error to the pipeline error taxonomy.
func Classify(err error) domain.ErrorKind {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind()
	}
	if errors.Is(err, ErrMissingCredentials) {
		return domain.ErrKindConfigurationMissing
	}
	// Network failures, timeouts, cancellations.
	return domain.ErrKindUpstreamUnavailable
}

// Config holds completion-client settings. The API key arrives already
// resolved; secret lookup is the configuration layer's job.
type Config struct {
	Endpoint          string        `yaml:"endpoint"`
	APIKey            string        `yaml:"-"`
	Model             string        `yaml:"model"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// Client calls an Anthropic-compatible messages endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a completion client. The API key must be present;
// endpoint and pacing fall back to sane defaults.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
	}, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: truncate(string(raw), 256)}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unparseable response: %v", err)}
	}

	var text string
	if len(parsed.Content) > 0 {
		text = parsed.Content[0].Text
	}

	c.logger.Debug("completion call finished",
		"model", c.cfg.Model,
		"latency_ms", time.Since(start).Milliseconds(),
		"input_tokens", parsed.Usage.InputTokens,
		"output_tokens", parsed.Usage.OutputTokens,
		"stop_reason", parsed.StopReason)

	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
