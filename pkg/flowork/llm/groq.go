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
)

// DefaultBaseURL is the Groq OpenAI-compatible API root.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Groq implements Client against the Groq chat-completions API.
type Groq struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// GroqOption configures a Groq client.
type GroqOption func(*Groq)

// NewGroq creates a Groq client. The API key is required; everything
// else has defaults overridable with options.
func NewGroq(apiKey string, opts ...GroqOption) *Groq {
	g := &Groq{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithModel sets the default model.
func WithModel(model string) GroqOption {
	return func(g *Groq) { g.model = model }
}

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(url string) GroqOption {
	return func(g *Groq) { g.baseURL = strings.TrimRight(url, "/") }
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) GroqOption {
	return func(g *Groq) { g.temperature = t }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) GroqOption {
	return func(g *Groq) { g.httpClient = c }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) GroqOption {
	return func(g *Groq) { g.httpClient.Timeout = d }
}

// chatRequest is the wire format of a chat-completions call.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire format of a chat-completions response.
// Content is kept raw: providers return either a flat string or a list
// of typed fragments.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements Client.
func (g *Groq) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	body, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, NewError("complete", fmt.Errorf("encode request: %w", err), false)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, NewError("complete", fmt.Errorf("build request: %w", err), false)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError("complete", ctx.Err(), false)
		}
		return nil, NewError("complete", err, true)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewError("complete", fmt.Errorf("read response: %w", err), true)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var ae apiError
		if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		retryable := isRetryableStatus(httpResp.StatusCode) || isRetryableMessage(msg)
		return nil, NewError("complete",
			fmt.Errorf("status %d: %s", httpResp.StatusCode, msg), retryable)
	}

	resp, err := g.parseResponse(respBody)
	if err != nil {
		return nil, NewError("complete", err, false)
	}
	resp.Duration = time.Since(start)
	return resp, nil
}

// buildRequest maps a CompletionRequest onto the wire format.
func (g *Groq) buildRequest(req CompletionRequest) chatRequest {
	model := g.model
	if req.Model != "" {
		model = req.Model
	}
	temperature := g.temperature
	if req.Temperature != 0 {
		temperature = req.Temperature
	}

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	return chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// parseResponse decodes the wire response, handling both flat-string
// and fragment-list content.
func (g *Groq) parseResponse(data []byte) (*CompletionResponse, error) {
	var wire chatResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return nil, fmt.Errorf("response has no choices")
	}

	choice := wire.Choices[0]
	resp := &CompletionResponse{
		Model:        wire.Model,
		FinishReason: choice.FinishReason,
		Usage: TokenUsage{
			InputTokens:  wire.Usage.PromptTokens,
			OutputTokens: wire.Usage.CompletionTokens,
			TotalTokens:  wire.Usage.TotalTokens,
		},
	}

	var flat string
	if err := json.Unmarshal(choice.Message.Content, &flat); err == nil {
		resp.Content = flat
		return resp, nil
	}
	var fragments []Fragment
	if err := json.Unmarshal(choice.Message.Content, &fragments); err == nil {
		resp.Fragments = fragments
		return resp, nil
	}
	return nil, fmt.Errorf("unrecognized content shape: %s", choice.Message.Content)
}

// isRetryableStatus reports whether an HTTP status indicates a
// transient failure.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isRetryableMessage checks if an error message indicates a transient error.
func isRetryableMessage(msg string) bool {
	msgLower := strings.ToLower(msg)
	return strings.Contains(msgLower, "rate limit") ||
		strings.Contains(msgLower, "timeout") ||
		strings.Contains(msgLower, "overloaded") ||
		strings.Contains(msgLower, "capacity")
}
