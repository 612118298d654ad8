package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// ErrMockClosed is returned by MockClient.ReadMessage once the client is closed.
var ErrMockClosed = errors.New("mock client closed")

// MockClient is a scriptable ws.Client.
//
// Without ReadFunc, ReadMessage blocks until a frame is pushed with Push, an
// error is injected with Fail, the client is closed or the Connect context is done.
type MockClient struct {
	ConnectErr error
	CloseErr   error
	ReadFunc   func() ([]byte, error)
	WriteFunc  func(msg []byte) error

	once    sync.Once
	inbound chan []byte
	errs    chan error
	closeCh chan struct{}

	mu        sync.Mutex
	ctxDone   <-chan struct{}
	connected bool
	closed    bool
	written   [][]byte
}

func (m *MockClient) init() {
	m.once.Do(func() {
		m.inbound = make(chan []byte, 100)
		m.errs = make(chan error, 1)
		m.closeCh = make(chan struct{})
	})
}

func (m *MockClient) Connect(ctx context.Context) error {
	m.init()
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.mu.Lock()
	m.ctxDone = ctx.Done()
	m.connected = true
	m.mu.Unlock()
	return nil
}

func (m *MockClient) Close() error {
	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closeCh)
	}
	return m.CloseErr
}

func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockClient) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Push queues an inbound frame.
func (m *MockClient) Push(frame string) {
	m.init()
	m.inbound <- []byte(frame)
}

// Fail makes the pending or next ReadMessage return err.
func (m *MockClient) Fail(err error) {
	m.init()
	m.errs <- err
}

func (m *MockClient) ReadMessage() ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc()
	}
	m.init()

	m.mu.Lock()
	ctxDone := m.ctxDone
	m.mu.Unlock()

	select {
	case b := <-m.inbound:
		return b, nil
	case err := <-m.errs:
		return nil, err
	case <-m.closeCh:
		return nil, ErrMockClosed
	case <-ctxDone:
		return nil, ErrMockClosed
	}
}

func (m *MockClient) WriteMessage(msg []byte) error {
	if m.WriteFunc != nil {
		if err := m.WriteFunc(msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.written = append(m.written, msg)
	m.mu.Unlock()
	return nil
}

func (m *MockClient) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// Request is the decoded form of an outbound subscribe/unsubscribe frame.
type Request struct {
	Method       string         `json:"method"`
	Subscription map[string]any `json:"subscription,omitempty"`
}

// RecordingWriter records every frame written to it.
type RecordingWriter struct {
	Err error

	mu       sync.Mutex
	messages [][]byte
}

func (w *RecordingWriter) WriteMessage(msg []byte) error {
	if w.Err != nil {
		return w.Err
	}
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	return nil
}

func (w *RecordingWriter) Messages() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.messages))
	copy(out, w.messages)
	return out
}

func (w *RecordingWriter) Reset() {
	w.mu.Lock()
	w.messages = nil
	w.mu.Unlock()
}

func (w *RecordingWriter) Requests(t *testing.T) []Request {
	t.Helper()
	return DecodeRequests(t, w.Messages())
}

func DecodeRequests(t *testing.T, msgs [][]byte) []Request {
	t.Helper()
	out := make([]Request, 0, len(msgs))
	for _, m := range msgs {
		var r Request
		require.NoError(t, json.Unmarshal(m, &r), "frame: %s", string(m))
		out = append(out, r)
	}
	return out
}
