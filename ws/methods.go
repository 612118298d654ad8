package ws

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

type frame struct {
	msg []byte
	err error
}

// Connect establishes a websocket connection and starts the reader.
// The reader stops when ctx is done or the connection fails.
func (c *clientImp) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx, c.url)
	if err != nil {
		c.errorf("connect failed: %v", err)
		return classifyWSError(err)
	}
	if c.readLimit > 0 {
		conn.SetReadLimit(c.readLimit)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.debugf("connected to %s", c.url)

	go c.startReader(ctx, conn)
	return nil
}

// ReadMessage returns the next inbound frame. After the reader has stopped and
// every buffered frame was consumed it returns ErrWSClosed.
func (c *clientImp) ReadMessage() ([]byte, error) {
	f, ok := <-c.frames
	if !ok {
		return nil, ErrWSClosed
	}
	return f.msg, f.err
}

func (c *clientImp) startReader(ctx context.Context, conn Conn) {
	defer close(c.frames)
	defer c.Close()
	c.debugf("reader started")

	stop := context.AfterFunc(ctx, func() {
		c.debugf("reader stopped by ctx")
		_ = c.Close()
	})
	defer stop()

	for c.readFrame(conn) {
	}
}

func (c *clientImp) readFrame(conn Conn) bool {
	msgType, buf, err := conn.ReadMessage()
	msgTypeStr := typeMsg(msgType)

	if err != nil {
		c.errorf("recv [%s] error: %v", msgTypeStr, err)
		c.push(buf, classifyWSError(err))
		return false
	}

	logFrame(c, msgTypeStr, buf)
	c.push(buf, nil)
	return true
}

func (c *clientImp) push(buf []byte, err error) {
	select {
	case c.frames <- frame{msg: buf, err: err}:
	default:
		c.errorf("ws frame dropped: read buffer full")
	}
}

func logFrame(c *clientImp, msgTypeStr string, buf []byte) {
	switch {
	case len(buf) == 0:
		c.debugf("recv [%s]: <empty>", msgTypeStr)
	case utf8.Valid(buf):
		c.debugf("recv [%s]: %s", msgTypeStr, string(buf))
	default:
		c.debugf("recv [%s]: <binary> %x", msgTypeStr, buf)
	}
}

// WriteMessage writes a text frame to the websocket connection.
func (c *clientImp) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("%w: not connected", ErrWriteFailed)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.errorf("set write deadline failed: %v", err)
		return fmt.Errorf("%w: %v", ErrWriteTimeout, err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.errorf("write failed: %v", err)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	c.debugf("send: %s", string(data))
	return nil
}

// Close closes the websocket connection. Safe to call multiple times.
//
// Panics if called before a successful Connect.
func (c *clientImp) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if nil == conn {
			panic("Close: cannot call Close before successful Connect")
		}

		if err := conn.Close(); err != nil {
			c.errorf("connection close failed: %v", err)
			c.closeErr = classifyWSError(err)
		}
	})
	return c.closeErr
}

func (c *clientImp) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func (c *clientImp) errorf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Errorf(format, args...)
	}
}

func typeMsg(code int) string {
	switch code {
	case websocket.TextMessage:
		return "Text"
	case websocket.BinaryMessage:
		return "Binary"
	case websocket.CloseMessage:
		return "Close"
	case websocket.PingMessage:
		return "Ping"
	case websocket.PongMessage:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(%d)", code)
	}
}
