package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrStreamInterrupted indicates a stream failed after it began producing
// output. Streams are not resumable, so any partial output must be
// discarded by the caller.
type ErrStreamInterrupted struct {
	Fragments int // fragments delivered before the failure
	Err       error
}

func (e *ErrStreamInterrupted) Error() string {
	return fmt.Sprintf("stream interrupted after %d fragments: %v", e.Fragments, e.Err)
}

func (e *ErrStreamInterrupted) Unwrap() error { return e.Err }

// errStreamClosed marks a stream that was closed by the consumer before
// the model finished.
var errStreamClosed = errors.New("stream closed before completion")
