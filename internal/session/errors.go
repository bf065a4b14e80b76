package session

import (
	"context"
	"errors"
	"time"

	"github.com/kalambet/profilechat/internal/blob"
	"github.com/kalambet/profilechat/internal/completion"
)

// Error types reported in ErrorInfo.Type.
const (
	ErrorTypeAPI            = "APIError"
	ErrorTypeCanceled       = "Canceled"
	ErrorTypeTimeout        = "Timeout"
	ErrorTypeIO             = "IOError"
	ErrorTypeInvalidRequest = "InvalidRequest"
	ErrorTypeGeneric        = "Error"
)

const errorTimeLayout = "2006-01-02T15:04:05.000000"

// ErrInvalidRequest marks malformed caller input.
var ErrInvalidRequest = errors.New("invalid request")

// StorageError wraps a failure reading or writing persisted state.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Err: err}
}

// Classify maps err to one of the ErrorType constants.
func Classify(err error) string {
	var apiErr *completion.APIError
	var storage *StorageError
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.As(err, &apiErr):
		return ErrorTypeAPI
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, blob.ErrInvalidPath):
		return ErrorTypeInvalidRequest
	case errors.As(err, &storage):
		return ErrorTypeIO
	default:
		return ErrorTypeGeneric
	}
}

// NewErrorInfo describes err as of now.
func NewErrorInfo(err error, now time.Time) *ErrorInfo {
	return &ErrorInfo{
		Message:   err.Error(),
		Type:      Classify(err),
		Timestamp: now.Format(errorTimeLayout),
	}
}

// ChatFailure builds the result for a chat turn that failed with err.
func ChatFailure(err error, now time.Time) ChatResult {
	return ChatResult{Error: NewErrorInfo(err, now)}
}

// InitFailure builds the result for a failed Init.
func InitFailure(err error) InitResult {
	return InitResult{Status: StatusError, Message: err.Error()}
}
