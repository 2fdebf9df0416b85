package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the generation pipeline. RemoteUnavailable and
// CacheDegraded are swallowed internally (fallback and cache-miss paths);
// the others reach callers.
var (
	ErrRemoteUnavailable       = errors.New("remote generator unavailable")
	ErrRemoteFailed            = errors.New("remote generation failed")
	ErrRemoteTimedOut          = errors.New("remote generation timed out")
	ErrCacheDegraded           = errors.New("cache degraded")
	ErrInvalidFingerprintInput = errors.New("invalid fingerprint input")
)

// GenerationError carries request context alongside a pipeline error kind so
// callers can report what was being generated when it failed.
type GenerationError struct {
	Kind     error
	Actions  []Action
	Duration int
	Detail   string
}

func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (actions=%v duration=%ds)", e.Kind, e.Actions, e.Duration)
	}
	return fmt.Sprintf("%v (actions=%v duration=%ds): %s", e.Kind, e.Actions, e.Duration, e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Kind }

// NewGenerationError builds a GenerationError for the given request.
func NewGenerationError(kind error, req Request, detail string) *GenerationError {
	return &GenerationError{
		Kind:     kind,
		Actions:  req.Actions,
		Duration: req.DurationSeconds,
		Detail:   detail,
	}
}

// ErrorKindLabel maps a pipeline error to its telemetry label.
func ErrorKindLabel(err error) string {
	switch {
	case errors.Is(err, ErrRemoteFailed):
		return "remote_failed"
	case errors.Is(err, ErrRemoteTimedOut):
		return "remote_timed_out"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrCacheDegraded):
		return "cache_degraded"
	case errors.Is(err, ErrInvalidFingerprintInput):
		return "invalid_fingerprint_input"
	default:
		return "internal"
	}
}
