package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

// Provider generates a completion for a prompt. Implementations must be
// safe for concurrent use.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

const defaultTimeout = 120 * time.Second

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a chat completions client. baseURL is the API root,
// e.g. "https://api.openai.com/v1".
func NewClient(baseURL, apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, types.NewError(types.ErrGenerate, "llm: base URL must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, types.NewError(types.ErrGenerate, "llm: model must not be empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "llm_client"), zap.String("model", model))
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt as a single user message and returns the first
// choice. Transport failures and 429/5xx responses come back retryable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", types.NewError(types.ErrGenerate, "llm: encode request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", types.NewError(types.ErrGenerate, "llm: build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrGenerate, "llm: request failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", types.NewError(types.ErrGenerate, "llm: read response").
			WithCause(err).WithRetryable(true)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("llm: upstream returned %d", resp.StatusCode)
		var parsed chatResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			msg = fmt.Sprintf("llm: upstream returned %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", types.NewError(types.ErrGenerate, msg).WithRetryable(retryable)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", types.NewError(types.ErrGenerate, "llm: decode response").WithCause(err)
	}
	if len(parsed.Choices) == 0 {
		return "", types.NewError(types.ErrGenerate, "llm: response has no choices")
	}

	c.logger.Debug("completion received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("response_len", len(parsed.Choices[0].Message.Content)),
	)
	return parsed.Choices[0].Message.Content, nil
}
