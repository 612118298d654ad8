package ws

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/gorilla/websocket"
)

var (
	// ErrWriteTimeout is returned when a write operation times out.
	ErrWriteTimeout = errors.New("write timeout")
	// ErrWriteFailed is returned when a write operation fails.
	ErrWriteFailed = errors.New("write failed")
	// ErrWSClosed is returned by ReadMessage once the reader has stopped.
	ErrWSClosed = errors.New("connection closed")
	// ErrWSNormalClosure is returned when a websocket connection is closed normally.
	ErrWSNormalClosure = errors.New("connection closed normally")
	// ErrWSAbnormalClosure is returned when a websocket connection is closed abnormally.
	ErrWSAbnormalClosure = errors.New("connection closed abnormally")
	// ErrWSNetworkIssue is returned when a network issue occurs.
	ErrWSNetworkIssue = errors.New("network issue")
	// ErrWSReadInterrupted is returned when a read operation is interrupted.
	ErrWSReadInterrupted = errors.New("read interrupted")
	// ErrWSPayloadCorrupted is returned when a payload is invalid or corrupted.
	ErrWSPayloadCorrupted = errors.New("invalid/corrupted payload")
	// ErrWSUnexpectedEOF is returned when an unexpected EOF is encountered.
	ErrWSUnexpectedEOF = errors.New("unexpected EOF")
	// ErrWSInternalError is returned for internal client errors.
	ErrWSInternalError = errors.New("internal client error")
)

// classifiers are checked in order; the first match decides the kind.
var classifiers = []struct {
	kind  error
	match func(error) bool
}{
	{ErrWSNormalClosure, func(err error) bool {
		return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
	}},
	{ErrWSAbnormalClosure, func(err error) bool {
		var ce *websocket.CloseError
		return errors.As(err, &ce)
	}},
	{ErrWSReadInterrupted, isReadInterrupted},
	{ErrWSUnexpectedEOF, isUnexpectedEOF},
	{ErrWSNetworkIssue, isNetError},
	{ErrWSPayloadCorrupted, isPayloadCorrupted},
}

func classifyWSError(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range classifiers {
		if c.match(err) {
			return fmt.Errorf("%w: %v", c.kind, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrWSInternalError, err)
}

func isReadInterrupted(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "close sent")
}

func isUnexpectedEOF(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		strings.Contains(err.Error(), "unexpected EOF")
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isPayloadCorrupted(err error) bool {
	if errors.Is(err, websocket.ErrReadLimit) {
		return true
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "invalid UTF-8") ||
		strings.Contains(errMsg, "malformed") ||
		strings.Contains(errMsg, "unexpected opcode")
}
