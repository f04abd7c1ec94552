// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeStorage    ErrorType = "STORAGE"
	// ErrTypeExhausted means every provider failed and no fallback applies.
	ErrTypeExhausted ErrorType = "EXHAUSTED"
)

type ChatError struct {
	Type           ErrorType
	Operation      string
	Message        string
	ConversationID string
	// Attempts lists the provider failures behind an EXHAUSTED error.
	Attempts []Attempt
	Cause    error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error { return e.Cause }

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(operation, conversationID string) *ChatError {
	return &ChatError{
		Type:           ErrTypeNotFound,
		Operation:      operation,
		Message:        "conversation not found",
		ConversationID: conversationID,
	}
}

func NewStorageError(operation, conversationID string, cause error) *ChatError {
	return &ChatError{
		Type:           ErrTypeStorage,
		Operation:      operation,
		Message:        "conversation store failure",
		ConversationID: conversationID,
		Cause:          cause,
	}
}

func NewExhaustedError(operation, conversationID string, attempts []Attempt) *ChatError {
	return &ChatError{
		Type:           ErrTypeExhausted,
		Operation:      operation,
		Message:        describeAttempts(attempts),
		ConversationID: conversationID,
		Attempts:       attempts,
	}
}

// IsType reports whether err is a *ChatError of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == t
}
