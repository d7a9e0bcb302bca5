package ai

import (
	"errors"
	"fmt"
)

// ErrorTag classifies an upstream model-provider failure so callers
// can decide whether a retry makes sense.
type ErrorTag string

const (
	// TagRateLimited indicates the provider returned HTTP 429.
	TagRateLimited ErrorTag = "rate_limited"
	// TagQuotaExhausted indicates the provider returned HTTP 402.
	TagQuotaExhausted ErrorTag = "quota_exhausted"
	// TagUnavailable covers every other non-success outcome,
	// including timeouts.
	TagUnavailable ErrorTag = "unavailable"
)

// Error is a structured upstream model error.
type Error struct {
	Err        error
	Tag        ErrorTag
	Message    string
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ai provider %s error: %s", e.Tag, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a structured provider error. Rate limits and
// unavailability are retryable; an exhausted quota is not.
func newError(tag ErrorTag, statusCode int, err error) *Error {
	return &Error{
		Tag:        tag,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
		Retryable:  tag != TagQuotaExhausted,
	}
}

// IsRateLimited checks if the error is a provider rate limit.
func IsRateLimited(err error) bool { return hasTag(err, TagRateLimited) }

// IsQuotaExhausted checks if the error is an exhausted provider quota.
func IsQuotaExhausted(err error) bool { return hasTag(err, TagQuotaExhausted) }

// IsUnavailable checks if the error is a generic provider failure.
func IsUnavailable(err error) bool { return hasTag(err, TagUnavailable) }

func hasTag(err error, tag ErrorTag) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Tag == tag
	}
	return false
}
