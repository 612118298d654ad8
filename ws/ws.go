package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the interface for a websocket client.
type Client interface {
	Connect(context.Context) error
	ReadMessage() ([]byte, error)
	WriteMessage([]byte) error
	Close() error
}

// Conn is an interface for a websocket connection.
type Conn interface {
	Close() error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
}

// Dialer opens a websocket connection to url.
type Dialer func(ctx context.Context, url string) (Conn, error)

// Option is a function type for client options.
type Option func(*clientImp)

// Logger is an interface for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

const (
	defaultBufferSize       = 1000
	defaultWriteTimeout     = 300 * time.Millisecond
	defaultHandshakeTimeout = 10 * time.Second
)

type clientImp struct {
	conn   Conn
	dial   Dialer
	logger Logger

	url          string
	mu           sync.Mutex
	frames       chan frame
	writeTimeout time.Duration
	readLimit    int64

	closeOnce sync.Once
	closeErr  error
}

// NewClient creates a new websocket client for the given URL.
//
// By default:
//   - Inbound frames are buffered in a channel of size 1000; frames arriving
//     while the buffer is full are dropped and logged.
//   - The write timeout is 300 milliseconds.
//   - The handshake timeout is 10 seconds and proxies come from the environment.
//
// A client is single use: once the connection is closed, create a new one.
//
// Panics if the URL is empty.
func NewClient(url string, opts ...Option) Client {
	if url == "" {
		panic("url must not be empty")
	}

	c := &clientImp{
		url:          url,
		dial:         gorillaDialer,
		writeTimeout: defaultWriteTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.frames == nil {
		c.frames = make(chan frame, defaultBufferSize)
	}
	return c
}

// WithLogger sets the logger for the client.
func WithLogger(l Logger) Option {
	return func(c *clientImp) {
		c.logger = l
	}
}

// WithWriteTimeout sets the write timeout for the client.
// The default is 300 milliseconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *clientImp) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithReadBuffer sets the number of inbound frames buffered between the
// socket reader and ReadMessage. If n is not positive, it defaults to 1000.
func WithReadBuffer(n int) Option {
	return func(c *clientImp) {
		if n <= 0 {
			n = defaultBufferSize
		}
		c.frames = make(chan frame, n)
	}
}

// WithReadLimit caps the size in bytes of a single inbound frame. Zero means no limit.
func WithReadLimit(n int64) Option {
	return func(c *clientImp) {
		c.readLimit = n
	}
}

// WithDialer replaces the gorilla/websocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *clientImp) {
		if d != nil {
			c.dial = d
		}
	}
}

func gorillaDialer(ctx context.Context, url string) (Conn, error) {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
