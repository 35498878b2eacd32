package schemas

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure an operation can report. Callers use
// the kind to decide whether to retry, wait longer, or abandon the session,
// so a missing session must never be conflated with a timeout, and a timeout
// must never be conflated with a genuine driver fault.
type ErrorKind string

const (
	// KindSessionNotFound is returned for any operation referencing a
	// session id that is not currently registered.
	KindSessionNotFound ErrorKind = "session_not_found"

	// KindElementNotFound covers both "never existed" and "handle
	// forgotten". It does not imply staleness.
	KindElementNotFound ErrorKind = "element_not_found_or_expired"

	// KindStaleElement means the handle existed but the underlying DOM
	// node is no longer attached to the document.
	KindStaleElement ErrorKind = "stale_element"

	// KindInvalidLocator is returned when a locator strategy name is not
	// recognized.
	KindInvalidLocator ErrorKind = "invalid_locator"

	// KindInvalidArgument flags malformed request parameters.
	KindInvalidArgument ErrorKind = "invalid_argument"

	// KindTimeout is the expected outcome of a wait whose condition never
	// held. It is frequent and non-fatal.
	KindTimeout ErrorKind = "timeout"

	// KindDriver is the catch-all for unexpected failures raised by the
	// underlying automation capability.
	KindDriver ErrorKind = "driver_error"

	// KindNoAlert is returned by alert operations when no dialog is open.
	KindNoAlert ErrorKind = "no_alert_present"

	// KindFrameNotFound is returned when a frame switch target does not
	// resolve to a frame.
	KindFrameNotFound ErrorKind = "frame_not_found"

	// KindCookieNotFound is returned when a cookie lookup names a cookie
	// that does not exist on the current page.
	KindCookieNotFound ErrorKind = "cookie_not_found"
)

// OpError is the typed failure every operation returns. Nothing crosses the
// operation boundary as an unhandled fault; driver failures are wrapped so
// the original error remains inspectable via errors.Unwrap.
type OpError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *OpError) Unwrap() error { return e.cause }

// Is matches any *OpError carrying the same kind, so tests and callers can
// write errors.Is(err, schemas.ErrTimeout) without caring about messages.
func (e *OpError) Is(target error) bool {
	t, ok := target.(*OpError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an OpError of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *OpError {
	return &OpError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapDriver converts an arbitrary capability failure into a driver-kind
// OpError, preserving the cause. If err is already an OpError it is returned
// unchanged so classified failures keep their kind.
func WrapDriver(err error) *OpError {
	var op *OpError
	if errors.As(err, &op) {
		return op
	}
	return &OpError{Kind: KindDriver, Message: err.Error(), cause: err}
}

// Sentinel values for errors.Is comparisons. Messages are irrelevant; only
// the kind participates in matching.
var (
	ErrSessionNotFound = &OpError{Kind: KindSessionNotFound, Message: "session not found"}
	ErrElementNotFound = &OpError{Kind: KindElementNotFound, Message: "element not found or expired"}
	ErrStaleElement    = &OpError{Kind: KindStaleElement, Message: "stale element reference"}
	ErrInvalidLocator  = &OpError{Kind: KindInvalidLocator, Message: "invalid locator"}
	ErrInvalidArgument = &OpError{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrTimeout         = &OpError{Kind: KindTimeout, Message: "timed out"}
	ErrNoAlert         = &OpError{Kind: KindNoAlert, Message: "no alert present"}
	ErrFrameNotFound   = &OpError{Kind: KindFrameNotFound, Message: "frame not found"}
	ErrCookieNotFound  = &OpError{Kind: KindCookieNotFound, Message: "cookie not found"}
)

// KindOf extracts the ErrorKind from err, defaulting to KindDriver for
// unclassified failures and returning "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var op *OpError
	if errors.As(err, &op) {
		return op.Kind
	}
	return KindDriver
}
