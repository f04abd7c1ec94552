// File: internal/services/ai/errors.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeQuota      ErrorType = "QUOTA"
	ErrTypeModel      ErrorType = "MODEL"
	ErrTypeSafety     ErrorType = "SAFETY"
	ErrTypeEmpty      ErrorType = "EMPTY"
	ErrTypeMalformed  ErrorType = "MALFORMED"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AIError struct {
	Type      ErrorType
	Provider  string
	Code      int
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error from %s: %s (caused by: %v)",
			e.Type, e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error from %s: %s", e.Type, e.Provider, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

func NewConfigError(provider, msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Provider: provider, Message: msg, Operation: "config"}
}

func NewProviderError(provider, operation, msg string, cause error) *AIError {
	return &AIError{Type: ErrTypeProvider, Provider: provider, Operation: operation, Message: msg, Cause: cause}
}

func NewEmptyResponseError(provider, model string) *AIError {
	return &AIError{Type: ErrTypeEmpty, Provider: provider, Model: model, Operation: "completion", Message: "empty completion response"}
}

func NewSafetyError(provider, model, reason string) *AIError {
	return &AIError{Type: ErrTypeSafety, Provider: provider, Model: model, Operation: "completion",
		Message: "response blocked by safety filter: " + reason}
}

// NewTransportError classifies a failed round trip as a timeout or a network error.
func NewTransportError(provider, model string, err error) *AIError {
	t := ErrTypeNetwork
	msg := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		t = ErrTypeTimeout
		msg = "request timed out"
	}
	return &AIError{Type: t, Provider: provider, Model: model, Operation: "completion", Message: msg, Cause: err}
}

// NewStatusError maps an HTTP status from a provider onto an ErrorType.
func NewStatusError(provider, model string, status int, body string) *AIError {
	return &AIError{
		Type:      errorTypeForStatus(status),
		Provider:  provider,
		Model:     model,
		Code:      status,
		Operation: "completion",
		Message:   fmt.Sprintf("status %d: %s", status, truncate(body, 300)),
	}
}

func errorTypeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrTypeConfig
	case status == http.StatusPaymentRequired:
		return ErrTypeQuota
	case status == http.StatusTooManyRequests:
		return ErrTypeRateLimit
	case status == http.StatusNotFound || status == http.StatusServiceUnavailable:
		return ErrTypeModel
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrTypeValidation
	default:
		return ErrTypeProvider
	}
}

// TypeOf returns the ErrorType of err, or "" when err is not an *AIError.
func TypeOf(err error) ErrorType {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Type
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
