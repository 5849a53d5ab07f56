// Package shared contains common error types and utilities.
package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common errors that can be used across the application
var (
	// ErrValidation indicates that input validation failed
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates that the upstream asked us to slow down
	ErrRateLimited = errors.New("rate limited")

	// ErrTransport indicates that the request never produced a response
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus indicates a non-success status that must not be retried
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrParse indicates a malformed upstream response
	ErrParse = errors.New("malformed response")

	// ErrNoContent indicates a well-formed response carrying nothing usable
	ErrNoContent = errors.New("no content")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindValidation represents input validation errors
	KindValidation
	// KindRateLimited represents 429 responses
	KindRateLimited
	// KindTransport represents connectivity failures
	KindTransport
	// KindHTTPStatus represents non-retryable status codes
	KindHTTPStatus
	// KindParse represents malformed responses
	KindParse
	// KindNoContent represents empty answers
	KindNoContent
	// KindTimeout represents timeout errors
	KindTimeout
	// KindInternal represents internal errors
	KindInternal
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindRateLimited:
		return "RateLimited"
	case KindTransport:
		return "Transport"
	case KindHTTPStatus:
		return "HTTPStatus"
	case KindParse:
		return "Parse"
	case KindNoContent:
		return "NoContent"
	case KindTimeout:
		return "Timeout"
	case KindInternal:
		return "Internal"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

var kindToSentinel = map[Kind]error{
	KindValidation:  ErrValidation,
	KindRateLimited: ErrRateLimited,
	KindTransport:   ErrTransport,
	KindHTTPStatus:  ErrHTTPStatus,
	KindParse:       ErrParse,
	KindNoContent:   ErrNoContent,
	KindTimeout:     ErrTimeout,
	KindInternal:    ErrInternal,
}

// kindPriorities defines the deterministic order used by KindOf.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil},
	{KindTimeout, ErrTimeout},
	{KindValidation, ErrValidation},
	{KindRateLimited, ErrRateLimited},
	{KindHTTPStatus, ErrHTTPStatus},
	{KindParse, ErrParse},
	{KindNoContent, ErrNoContent},
	{KindTransport, ErrTransport},
	{KindInternal, ErrInternal},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// Cancellation wins over everything, then timeouts, then the sentinels in
// declaration order. Transport is checked late so that a timeout carried by a
// transport error is reported as a timeout.
//
// Example:
//
//	switch shared.KindOf(err) {
//	case shared.KindValidation:
//	    return http.StatusBadRequest
//	case shared.KindNoContent:
//	    return http.StatusNotFound
//	default:
//	    return http.StatusBadGateway
//	}
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		switch priority.kind {
		case KindCanceled:
			if IsCanceled(err) {
				return KindCanceled
			}
		case KindTimeout:
			if IsTimeout(err) {
				return KindTimeout
			}
		default:
			if errors.Is(err, priority.err) {
				return priority.kind
			}
		}
	}

	return KindUnknown
}

// HasKind reports whether the given error has the specified kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ErrorOf returns the sentinel error for the given Kind.
// For KindUnknown and KindCanceled, it returns nil.
func ErrorOf(kind Kind) error {
	return kindToSentinel[kind]
}

// MarkKind wraps an error with the sentinel for kind, preserving the original.
// If err is nil, returns the sentinel error for the kind (or nil for unsupported kinds).
// Marking an error with a kind it already has returns it unchanged.
func MarkKind(err error, kind Kind) error {
	if err == nil {
		return ErrorOf(kind)
	}

	sentinel := ErrorOf(kind)
	if sentinel == nil {
		return err
	}
	if KindOf(err) == kind {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// If err is nil, Wrap returns nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsCanceled reports whether the error indicates a canceled context.
func IsCanceled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the error indicates a timeout.
// It checks for context.DeadlineExceeded, net.Error timeouts, and our ErrTimeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsValidation reports whether the error indicates input validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsRateLimited reports whether the error carries a 429.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsTransport reports whether the error is a connectivity failure.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// IsParse reports whether the upstream response was malformed.
func IsParse(err error) bool { return errors.Is(err, ErrParse) }

// IsRetryable reports whether err is worth another attempt: rate limiting or a
// transport failure not caused by cancellation.
func IsRetryable(err error) bool {
	if IsCanceled(err) {
		return false
	}
	return IsRateLimited(err) || IsTransport(err)
}
