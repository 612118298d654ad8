package sdkerr

import (
	"errors"
	"fmt"
	"strings"
)

// general
var (
	// ErrValidation indicates a validation error.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration indicates a configuration error.
	ErrConfiguration = errors.New("configuration error")
)

// mux
var (
	// ErrMalformedMessage indicates an inbound message that is not a {channel, data} JSON object.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrSendFailure indicates a subscribe/unsubscribe request could not be written.
	ErrSendFailure = errors.New("send failure")
	// ErrHandlerFault indicates a consumer handler panicked during dispatch.
	ErrHandlerFault = errors.New("handler fault")
	// ErrChannelExclusive indicates the channel is held by a single subscription.
	ErrChannelExclusive = errors.New("channel held by single subscription")
	// ErrDuplicateSubscription indicates an equal subscription is already registered.
	ErrDuplicateSubscription = errors.New("duplicate subscription")
)

// ws
var (
	// ErrWSConnection indicates a websocket connection error.
	ErrWSConnection = errors.New("websocket connection error")
	// ErrWSWrite indicates a websocket write failed.
	ErrWSWrite = errors.New("websocket write failed")
	// ErrWSRead indicates a websocket read failed.
	ErrWSRead = errors.New("websocket read failed")
	// ErrWSPing indicates a websocket ping failed.
	ErrWSPing = errors.New("websocket ping failed")
	// ErrWSClose indicates a websocket close failed.
	ErrWSClose = errors.New("websocket close failed")
	// ErrNotConnected indicates there is no open connection to write to.
	ErrNotConnected = errors.New("not connected")
)

// SDKError is a custom error type for the SDK.
type SDKError struct {
	kind    error
	message string
	cause   error
	op      string
	subsys  string
}

// Error returns the error message.
func (e *SDKError) Error() string {
	var parts []string

	if e.subsys != "" {
		parts = append(parts, fmt.Sprintf("subsys: %s", e.subsys))
	}
	if e.op != "" {
		parts = append(parts, fmt.Sprintf("op: %s", e.op))
	}
	if e.kind != nil {
		parts = append(parts, fmt.Sprintf("kind: %s", e.kind))
	}
	if e.message != "" {
		parts = append(parts, fmt.Sprintf("msg: %s", e.message))
	}
	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %s", e.cause))
	}

	return strings.Join(parts, " | ")
}

// Is reports whether any error in an SDKError's chain matches target.
func (e *SDKError) Is(target error) bool {
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.cause != nil && errors.Is(e.cause, target) {
		return true
	}
	return false
}

// As finds the first error in an SDKError's chain that matches target, and if so, sets target to that error value and returns true.
func (e *SDKError) As(target any) bool {
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.cause != nil && errors.As(e.cause, target) {
		return true
	}
	return false
}

// Unwrap returns the cause of the error.
func (e *SDKError) Unwrap() error {
	return e.cause
}

// New creates an SDKError for op in subsys.
func New(subsys, op string, kind, cause error) *SDKError {
	return &SDKError{
		kind:   kind,
		cause:  cause,
		op:     op,
		subsys: subsys,
	}
}

// WithMessage sets the message of the error.
func (e *SDKError) WithMessage(msg string) *SDKError {
	e.message = msg
	return e
}
