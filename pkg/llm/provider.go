package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamInterrupted marks a streaming response that died mid-flight.
// Tokens already delivered are not rolled back; the caller surfaces the error.
var ErrStreamInterrupted = errors.New("response stream interrupted")

// APIError carries the upstream status for failed completion calls.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm API error: status %d, body: %s", e.StatusCode, e.Body)
}

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// TokenHandler receives streamed response fragments in order. Returning an
// error aborts the stream.
type TokenHandler func(token string) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and delivers the response token by
	// token through the handler, returning the assembled reply
	ChatStream(ctx context.Context, history []Message, handler TokenHandler, options ...Option) (string, error)

	// Ping reports whether the backing API is reachable
	Ping(ctx context.Context) error
}
