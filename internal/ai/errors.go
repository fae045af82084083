package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when the generative service answers 429
	ErrQuotaExceeded = errors.New("generative service quota exceeded")
	// ErrUpstream covers every other transport or status failure of the generative service
	ErrUpstream = errors.New("generative service request failed")
	// ErrEmptyNarration is returned when no narration text came back for speech synthesis
	ErrEmptyNarration = errors.New("unable to get text for recipe narration")
)

// TagGenerationError reports tag output that is not a JSON array of strings
type TagGenerationError struct {
	Failure *ParseFailure
}

func (e *TagGenerationError) Error() string {
	return fmt.Sprintf("failed to parse tags from generative service response: %s", e.Failure.Reason)
}

func (e *TagGenerationError) Unwrap() error {
	return e.Failure
}

// IsTransport reports whether err came from talking to the generative service,
// as opposed to parsing what it returned
func IsTransport(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrUpstream)
}
