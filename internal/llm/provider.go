package llm

import (
	"context"
	"fmt"
)

// Message roles understood by chat completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat exchange.
type Message struct {
	Role    string
	Content string
}

// ChatRequest holds parameters for an LLM chat request.
// Zero MaxTokens leaves the limit to the provider. Temperature 0 is sent as
// (near) zero, not omitted.
type ChatRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatResponse is the first choice of a chat completion.
type ChatResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is the interface for LLM providers.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	DefaultModel() string
}

// Options tune a single Complete call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Complete sends a system/user message pair and returns the text of the
// first choice.
func Complete(ctx context.Context, p Provider, system, prompt string, opts Options) (string, error) {
	resp, err := p.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RemoteServiceError reports a failed call to the completion endpoint:
// transport failure, error status, or a response without choices.
type RemoteServiceError struct {
	StatusCode int // 0 when no HTTP status was received
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion endpoint (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion endpoint: %v", e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }
