package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported by providers. Every provider failure wraps exactly one of them.
var (
	ErrAuth            = errors.New("authentication failed")
	ErrTimeout         = errors.New("completion request timed out")
	ErrService         = errors.New("completion service failed")
	ErrSchemaViolation = errors.New("response does not match the expected schema")
)

// classify wraps err with the kind matching the HTTP status code or the
// state of ctx. statusCode is 0 when no response was received.
func classify(ctx context.Context, statusCode int, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuth, err)
	default:
		return fmt.Errorf("%w: %w", ErrService, err)
	}
}
