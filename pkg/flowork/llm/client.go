// Package llm defines the model service contract used by the workflow
// engine, plus a Groq chat-completions client.
//
// The engine treats the model as an opaque text-completion service:
// given a prompt it returns text, or fails with an *Error the caller
// converts into a node failure.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client is a text-completion service.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete performs one completion call.
	// Transport, quota, and decoding failures return an *Error.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest configures a completion call.
type CompletionRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`

	// Model overrides the client's default model when non-empty.
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Message is a conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Fragment is one piece of a structured response body. Some providers
// return content as a list of typed fragments instead of a flat string.
type Fragment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	// Content is the flat text content, when the provider returned one.
	Content string `json:"content"`
	// Fragments holds structured content when the provider returned a
	// fragment list instead of a flat string.
	Fragments []Fragment `json:"fragments,omitempty"`

	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Usage        TokenUsage    `json:"usage"`
	Duration     time.Duration `json:"duration"`
}

// Text returns the response's plain text: Content when set, otherwise
// the first textual fragment.
func (r *CompletionResponse) Text() string {
	if r.Content != "" {
		return r.Content
	}
	for _, f := range r.Fragments {
		if f.Text != "" {
			return f.Text
		}
	}
	return ""
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Error wraps a failed model call.
type Error struct {
	// Op is the operation that failed ("complete").
	Op string
	// Err is the underlying error.
	Err error
	// Retryable indicates a transient failure (rate limit, overload).
	Retryable bool
}

// NewError creates an Error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}
