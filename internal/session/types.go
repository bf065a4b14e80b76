package session

import (
	"github.com/kalambet/profilechat/internal/completion"
	"github.com/kalambet/profilechat/internal/profile"
)

// Init statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// InitResult is returned by Init.
type InitResult struct {
	Status   string           `json:"status"`
	Profile  *profile.Profile `json:"profile,omitempty"`
	ChatFile string           `json:"chat_file,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// Context is the conversation state a client carries between chat turns.
type Context struct {
	Messages []completion.Message `json:"messages"`
	ChatFile string               `json:"chat_file,omitempty"`
}

// ChatRequest is the payload accepted by the HTTP, CLI and MCP transports.
type ChatRequest struct {
	Message string   `json:"message"`
	Context *Context `json:"context,omitempty"`
}

// ChatResult is returned by Chat. Response is nil when Error is set.
type ChatResult struct {
	Response *string    `json:"response"`
	Context  *Context   `json:"context,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed chat turn.
type ErrorInfo struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
}
