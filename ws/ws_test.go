package ws

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFake error = errors.New("fake error")

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewClient("wss://example.test/ws").(*clientImp)
		assert.Equal(t, defaultWriteTimeout, c.writeTimeout)
		assert.Equal(t, defaultBufferSize, cap(c.frames))
		assert.NotNil(t, c.dial)
	})
	t.Run("options", func(t *testing.T) {
		c := NewClient("wss://example.test/ws",
			WithWriteTimeout(time.Second),
			WithReadBuffer(5),
			WithReadLimit(1<<20),
		).(*clientImp)
		assert.Equal(t, time.Second, c.writeTimeout)
		assert.Equal(t, 5, cap(c.frames))
		assert.Equal(t, int64(1<<20), c.readLimit)
	})
	t.Run("non-positive buffer falls back", func(t *testing.T) {
		c := NewClient("wss://example.test/ws", WithReadBuffer(0)).(*clientImp)
		assert.Equal(t, defaultBufferSize, cap(c.frames))
	})
	t.Run("empty url", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.Contains(t, r, "url must not be empty")
		}()
		NewClient("")
	})
}

func TestConnect(t *testing.T) {
	t.Run("dial error is classified", func(t *testing.T) {
		c := NewClient("wss://example.test/ws", WithDialer(func(context.Context, string) (Conn, error) {
			return nil, errFake
		}))
		err := c.Connect(context.Background())
		assert.ErrorIs(t, err, ErrWSInternalError)
		assert.ErrorContains(t, err, errFake.Error())
	})

	t.Run("applies read limit and reads", func(t *testing.T) {
		conn := newFakeConn()
		c := NewClient("wss://example.test/ws",
			WithReadLimit(64),
			WithDialer(func(context.Context, string) (Conn, error) { return conn, nil }),
		)
		conn.readCh <- readResp{msgType: websocket.TextMessage, data: []byte(`{"channel":"pong"}`)}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, c.Connect(ctx))

		msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, `{"channel":"pong"}`, string(msg))
		assert.Equal(t, int64(64), conn.limit())
	})
}

func TestReader(t *testing.T) {
	t.Run("read error then closed", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)
		conn.readCh <- readResp{msgType: websocket.TextMessage, data: []byte("bad"), err: errFake}

		go c.startReader(context.Background(), conn)

		msg, err := c.ReadMessage()
		assert.Equal(t, []byte("bad"), msg)
		assert.ErrorIs(t, err, ErrWSInternalError)

		_, err = c.ReadMessage()
		assert.ErrorIs(t, err, ErrWSClosed)
		assert.True(t, conn.isClosed())
	})

	t.Run("normal close from server", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)
		conn.readCh <- readResp{
			msgType: websocket.TextMessage,
			err:     &websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "normal close"},
		}

		go c.startReader(context.Background(), conn)

		msg, err := c.ReadMessage()
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, ErrWSNormalClosure)
	})

	t.Run("context cancel closes the connection", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			c.startReader(ctx, conn)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("reader did not stop")
		}
		assert.True(t, conn.isClosed())
	})

	t.Run("full buffer drops frame", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)
		c.frames = make(chan frame, 1)
		c.push([]byte("a"), nil)
		c.push([]byte("b"), nil)

		assert.Len(t, c.frames, 1)
	})
}

func TestWriteMessage(t *testing.T) {
	t.Run("writes text frame", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)

		require.NoError(t, c.WriteMessage([]byte(`{"method":"ping"}`)))

		w := <-conn.writeCh
		assert.Equal(t, websocket.TextMessage, w.msgType)
		assert.Equal(t, `{"method":"ping"}`, string(w.data))
	})
	t.Run("not connected", func(t *testing.T) {
		c := &clientImp{}
		assert.ErrorIs(t, c.WriteMessage([]byte("x")), ErrWriteFailed)
	})
	t.Run("deadline error", func(t *testing.T) {
		conn := newFakeConn()
		conn.deadlineErr = errFake
		c := newFakeClient(conn)
		assert.ErrorIs(t, c.WriteMessage([]byte("x")), ErrWriteTimeout)
	})
	t.Run("write error", func(t *testing.T) {
		conn := newFakeConn()
		conn.writeErr = errFake
		c := newFakeClient(conn)
		assert.ErrorIs(t, c.WriteMessage([]byte("x")), ErrWriteFailed)
	})
}

func TestClose(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		conn := newFakeConn()
		c := newFakeClient(conn)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		assert.True(t, conn.isClosed())
	})
	t.Run("close error is classified", func(t *testing.T) {
		conn := newFakeConn()
		conn.closeErr = io.ErrClosedPipe
		c := newFakeClient(conn)
		assert.ErrorIs(t, c.Close(), ErrWSReadInterrupted)
	})
	t.Run("panic before connect", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.Contains(t, r, "before successful Connect")
		}()
		c := &clientImp{}
		_ = c.Close()
	})
}

func TestClassifyWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, ErrWSNormalClosure},
		{"abnormal", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, ErrWSAbnormalClosure},
		{"policy violation", &websocket.CloseError{Code: websocket.ClosePolicyViolation}, ErrWSAbnormalClosure},
		{"eof", io.EOF, ErrWSUnexpectedEOF},
		{"read limit", websocket.ErrReadLimit, ErrWSPayloadCorrupted},
		{"unknown", errFake, ErrWSInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyWSError(tt.err), tt.want)
		})
	}
	assert.NoError(t, classifyWSError(nil))
}

func TestTypeMsg(t *testing.T) {
	assert.Equal(t, "Text", typeMsg(websocket.TextMessage))
	assert.Equal(t, "Binary", typeMsg(websocket.BinaryMessage))
	assert.Equal(t, "Unknown(42)", typeMsg(42))
}

func newFakeClient(conn *fakeConn) *clientImp {
	return &clientImp{
		conn:         conn,
		frames:       make(chan frame, 10),
		writeTimeout: defaultWriteTimeout,
	}
}

type fakeConn struct {
	readCh  chan readResp
	writeCh chan writeReq

	deadlineErr error
	writeErr    error
	closeErr    error

	mu        sync.Mutex
	closed    bool
	readLimit int64
	done      chan struct{}
	once      sync.Once
}

type readResp struct {
	msgType int
	data    []byte
	err     error
}

type writeReq struct {
	msgType int
	data    []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		readCh:  make(chan readResp, 10),
		writeCh: make(chan writeReq, 10),
		done:    make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case r := <-c.readCh:
		return r.msgType, r.data, r.err
	case <-c.done:
		return -1, nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writeCh <- writeReq{msgType: messageType, data: data}
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	return c.deadlineErr
}

func (c *fakeConn) SetReadLimit(limit int64) {
	c.mu.Lock()
	c.readLimit = limit
	c.mu.Unlock()
}

func (c *fakeConn) limit() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLimit
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return c.closeErr
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ Conn = (*fakeConn)(nil)
