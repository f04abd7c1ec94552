// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

// OperatorKey holds the authenticated operator's token subject.
const OperatorKey contextKey = "operator"
