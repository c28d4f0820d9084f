package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies a failure of a bridge operation. The set is closed: every
// provider or validation failure maps to exactly one kind before it reaches
// the agent runtime.
type Kind string

const (
	// KindInvalidArgument marks malformed tool arguments or queries.
	// Terminal for the call; the agent may retry with corrected arguments.
	KindInvalidArgument Kind = "invalid_argument"

	// KindUnauthorized marks a token that was rejected by the provider at
	// call time, or a session with no usable linked account. The tool layer
	// turns this into an authorization-required interruption.
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound marks a message or event id that does not exist or is
	// not accessible to the session.
	KindNotFound Kind = "not_found"

	// KindRateLimited marks provider quota exhaustion.
	KindRateLimited Kind = "rate_limited"

	// KindUnavailable marks transient provider outages and timeouts on
	// read-only calls.
	KindUnavailable Kind = "unavailable"

	// KindAmbiguousSideEffect marks a timeout during a side-effecting call
	// (send, create) where the provider may or may not have acted. Never
	// retried automatically.
	KindAmbiguousSideEffect Kind = "ambiguous_side_effect"
)

// Error is the normalized form of a bridge failure. It wraps the underlying
// cause so callers can still errors.As into googleapi.Error when needed.
type Error struct {
	Kind    Kind
	Op      string // provider operation, e.g. "gmail.send"
	Message string // human-readable, safe to surface to the agent
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a taxonomy error with a formatted message.
func NewError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf builds an InvalidArgument error for a validation failure.
// Validation errors never carry an Op since no provider was contacted.
func InvalidArgumentf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from err. Errors that were never
// normalized report KindUnavailable, the safest terminal classification.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnavailable
}

// IsUnauthorized reports whether err should be surfaced as an
// authorization-required interruption rather than a failure string.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// FromGoogleAPI normalizes a Google API error into the taxonomy. The op names
// the provider call for log and message context. A nil err returns nil.
func FromGoogleAPI(op string, err error) error {
	return normalize(op, err, false)
}

// FromGoogleAPISideEffect is FromGoogleAPI for side-effecting calls: a
// timeout maps to AmbiguousSideEffect instead of Unavailable because the
// provider may already have acted.
func FromGoogleAPISideEffect(op string, err error) error {
	return normalize(op, err, true)
}

func normalize(op string, err error, sideEffect bool) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		if sideEffect {
			return &Error{
				Kind:    KindAmbiguousSideEffect,
				Op:      op,
				Message: fmt.Sprintf("%s timed out; the action may or may not have completed; verify before repeating it", op),
				Err:     err,
			}
		}
		return &Error{
			Kind:    KindUnavailable,
			Op:      op,
			Message: fmt.Sprintf("%s timed out; please try again later", op),
			Err:     err,
		}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return &Error{Kind: KindUnauthorized, Op: op, Message: "Google rejected the access token", Err: err}
		case gerr.Code == http.StatusForbidden && isQuotaError(gerr):
			return &Error{Kind: KindRateLimited, Op: op, Message: "Google API quota exceeded; please try again later", Err: err}
		case gerr.Code == http.StatusForbidden:
			// Non-quota 403s are scope/permission problems; the remedy is
			// the same as for a missing token: re-authorize.
			return &Error{Kind: KindUnauthorized, Op: op, Message: "the linked Google account does not permit this operation", Err: err}
		case gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone:
			return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s: requested item was not found", op), Err: err}
		case gerr.Code == http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Op: op, Message: "Google API rate limit hit; please try again later", Err: err}
		case gerr.Code == http.StatusBadRequest:
			return &Error{Kind: KindInvalidArgument, Op: op, Message: fmt.Sprintf("%s: Google rejected the request as malformed", op), Err: err}
		}
		return &Error{Kind: KindUnavailable, Op: op, Message: fmt.Sprintf("%s failed with status %d; please try again later", op, gerr.Code), Err: err}
	}

	kind := KindUnavailable
	msg := fmt.Sprintf("%s failed; please try again later", op)
	if sideEffect {
		// Network-level failure mid-send is just as ambiguous as a timeout.
		var netErr net.Error
		if errors.As(err, &netErr) {
			kind = KindAmbiguousSideEffect
			msg = fmt.Sprintf("%s failed mid-flight; the action may or may not have completed", op)
		}
	}
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isQuotaError distinguishes quota 403s from permission 403s by reason code.
func isQuotaError(gerr *googleapi.Error) bool {
	for _, e := range gerr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}
