package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyClaim is returned when a text or url request carries no input
	ErrEmptyClaim = errors.New("empty claim")
	// ErrMissingImage is returned for image requests without image data
	ErrMissingImage = errors.New("image input without image data")
	// ErrProviderFailure wraps search, vision and language-generation errors that abort a run
	ErrProviderFailure = errors.New("provider failure")
	// ErrTransitionLimit is returned when a run exceeds the transition ceiling
	ErrTransitionLimit = errors.New("transition limit exceeded")
)

func providerFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProviderFailure, op, err)
}

// ErrorKind names the class of a run error for callers that only show a short label
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, ErrProviderFailure):
		return "ProviderFailure"
	case errors.Is(err, ErrEmptyClaim), errors.Is(err, ErrMissingImage):
		return "InvalidRequest"
	case errors.Is(err, ErrTransitionLimit):
		return "TransitionLimit"
	default:
		return "InternalError"
	}
}

// ErrorMessage formats a run failure for the response stream
func ErrorMessage(err error) string {
	return fmt.Sprintf("Critical Agent Error: %s: %v", ErrorKind(err), err)
}
