// Package completion talks to hosted chat-completion APIs. Callers depend on
// the Completer interface; backends are selected with New.
package completion

import (
	"context"
	"fmt"
)

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends an ordered message sequence and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// APIError is returned when a backend answers with a non-success status.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Status, e.Message)
}

// Options configures a backend built by New.
type Options struct {
	Provider   string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
}

// New builds the Completer for opts.Provider.
func New(opts Options) (Completer, error) {
	switch opts.Provider {
	case "", "openai":
		return NewOpenAI(opts), nil
	case "anthropic":
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want openai or anthropic)", opts.Provider)
	}
}
