// Package completion is the thin translation layer to the downstream
// OpenAI-compatible chat completions API.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama3-8b-8192"
	requestTimeout = 60 * time.Second
)

// Turn is one entry of a conversation.
type Turn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// Usage mirrors the provider's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the shaped outcome of one completion call. It is produced once
// per request and never mutated.
type Result struct {
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	Usage     Usage     `json:"usage"`
	Timestamp time.Time `json:"timestamp"`
}

// ProviderError is any transport failure or non-2xx response from the
// provider.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("completion provider: %s", e.Message)
	}
	return fmt.Sprintf("completion provider: status %d (%s)", e.StatusCode, e.Code)
}

// RateLimited reports whether the provider rejected the call for quota
// reasons. Classification is by status and structured error code, never by
// matching message text.
func (e *ProviderError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type chatRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
	Stream      bool    `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete performs a single completion attempt: system prompt, then the
// trailing history, then the new user turn. Retry policy belongs to the
// caller; this layer fails fast.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []Turn, message string) (*Result, error) {
	messages := make([]Turn, 0, len(history)+2)
	messages = append(messages, Turn{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Turn{Role: "user", Content: message})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   400,
		TopP:        0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{StatusCode: resp.StatusCode, Message: "provider request failed"}
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			perr.Code = parsed.Error.Code
			perr.Message = parsed.Error.Message
		}
		return nil, perr
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "malformed provider response"}
	}

	var content string
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	}

	return &Result{
		Content:   content,
		Model:     parsed.Model,
		Usage:     parsed.Usage,
		Timestamp: time.Now().UTC(),
	}, nil
}
