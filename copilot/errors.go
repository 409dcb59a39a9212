package copilot

import (
	"errors"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/llm"
)

var (
	// ErrValidation is returned before any network call when an input is blank
	ErrValidation = errors.New("validation failed")
	// ErrNothingToIntegrate is returned by Integrate before any successful suggestion
	ErrNothingToIntegrate = errors.New("no suggestion to integrate")
)

// Kind is the user-facing class of an error
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindTimeout    Kind = "timeout"
	KindSchema     Kind = "schema"
	KindService    Kind = "service"
)

// KindOf maps an error to its Kind. Unknown errors count as service errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNothingToIntegrate):
		return KindValidation
	case errors.Is(err, llm.ErrAuth):
		return KindAuth
	case errors.Is(err, llm.ErrTimeout):
		return KindTimeout
	case errors.Is(err, llm.ErrSchemaViolation):
		return KindSchema
	default:
		return KindService
	}
}

// IsServiceError reports whether err came from the completion service side
// (network, auth, timeout or schema) rather than from input validation.
func IsServiceError(err error) bool {
	kind := KindOf(err)
	return kind != KindNone && kind != KindValidation
}
