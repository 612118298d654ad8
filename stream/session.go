package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanTurko/perpstream-go/internal/logx"
	counter "github.com/IvanTurko/perpstream-go/internal/sync"
	"github.com/IvanTurko/perpstream-go/mux"
	"github.com/IvanTurko/perpstream-go/sdkerr"
	"github.com/IvanTurko/perpstream-go/ws"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	subsys = "stream"

	defaultBaseDelay    = 1 * time.Second
	defaultMaxDelay     = 60 * time.Second
	defaultPingInterval = 50 * time.Second

	pongChannel = "pong"
)

var pingFrame = []byte(`{"method":"ping"}`)

// Stats is a snapshot of session counters.
type Stats struct {
	State       mux.ReadyState
	Connects    uint64
	Reconnects  uint64
	Received    uint64
	Malformed   uint64
	LastLatency time.Duration
}

// Session owns the shared connection of one Multiplexer.
//
// Run dials, marks the multiplexer open (which replays every registered
// subscription), pumps inbound frames into it and reconnects with exponential
// backoff whenever the connection drops. Consumers interact only with Mux().
type Session struct {
	id         string
	url        string
	factory    func(url string) ws.Client
	clientOpts []ws.Option
	muxOpts    []mux.Option

	baseLogger *zap.Logger
	logger     *zap.SugaredLogger

	baseDelay    time.Duration
	maxDelay     time.Duration
	pingInterval time.Duration
	now          func() time.Time

	onDisconnect  func(error)
	onStateChange func(mux.ReadyState)
	onLatency     func(time.Duration)

	mux *mux.Multiplexer

	mu         sync.Mutex
	client     ws.Client
	pingSentAt time.Time

	connects    counter.Counter
	received    counter.Counter
	malformed   counter.Counter
	lastLatency atomic.Int64
}

// New creates a Session for url using the gorilla/websocket client.
//
// Panics if url is empty.
func New(url string, opts ...Option) *Session {
	if url == "" {
		panic("stream.New: url must not be empty")
	}
	s := newSession(url, opts)
	s.factory = func(url string) ws.Client {
		clientOpts := append([]ws.Option{ws.WithLogger(logx.Sugar(s.baseLogger, "ws"))}, s.clientOpts...)
		return ws.NewClient(url, clientOpts...)
	}
	return s
}

// NewWithFactory is like New but uses the provided ws.Client factory, called
// once per connection attempt. Useful for tests and custom connection setups.
//
// Panics if factory is nil.
func NewWithFactory(url string, factory func(url string) ws.Client, opts ...Option) *Session {
	if factory == nil {
		panic("stream.NewWithFactory: factory must not be nil")
	}
	s := newSession(url, opts)
	s.factory = factory
	return s
}

func newSession(url string, opts []Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		url:          url,
		baseDelay:    defaultBaseDelay,
		maxDelay:     defaultMaxDelay,
		pingInterval: defaultPingInterval,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = logx.Sugar(s.baseLogger, "stream").With("session", s.id)
	muxOpts := append([]mux.Option{mux.WithLogger(logx.Sugar(s.baseLogger, "mux").With("session", s.id))}, s.muxOpts...)
	s.mux = mux.New(s, muxOpts...)
	return s
}

// ID returns the session identifier attached to every log line.
func (s *Session) ID() string {
	return s.id
}

// Mux returns the multiplexer consumers subscribe through.
func (s *Session) Mux() *mux.Multiplexer {
	return s.mux
}

// WriteMessage writes to the current connection.
//
// Errors:
//   - sdkerr.ErrNotConnected: no connection is open.
func (s *Session) WriteMessage(msg []byte) error {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	if c == nil {
		return errFactory("WriteMessage", sdkerr.ErrNotConnected, nil)
	}
	if err := c.WriteMessage(msg); err != nil {
		return errFactory("WriteMessage", sdkerr.ErrWSWrite, err)
	}
	return nil
}

// Run keeps the session connected until ctx is done and then returns nil.
// Connection failures are retried with exponential backoff, reported through
// WithOnDisconnect and logged; the backoff restarts from the base delay after
// every successful connect.
func (s *Session) Run(ctx context.Context) error {
	delay := s.baseDelay
	defer s.setState(mux.StateClosed)

	for {
		s.setState(mux.StateConnecting)

		connected, err := s.serve(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = s.baseDelay
		}

		s.logger.Warnw("connection lost", "error", err, "retry_in", delay)
		if s.onDisconnect != nil {
			s.onDisconnect(err)
		}

		if !s.wait(ctx, delay) {
			return nil
		}
		delay = s.nextDelay(delay)
	}
}

// serve runs one connection from dial to disconnect. connected reports whether
// the dial succeeded; err is why the connection ended.
func (s *Session) serve(ctx context.Context) (bool, error) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := s.factory(s.url)
	if err := client.Connect(connCtx); err != nil {
		return false, errFactory("Run", sdkerr.ErrWSConnection, err)
	}

	n := s.connects.Inc()
	s.logger.Infow("connected", "url", s.url, "attempt", n)

	s.mu.Lock()
	s.client = client
	s.pingSentAt = time.Time{}
	s.mu.Unlock()

	s.setState(mux.StateOpen)
	go s.startPinger(connCtx, client)

	readErr := s.readLoop(client)

	s.setState(mux.StateClosed)
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
	if cerr := client.Close(); cerr != nil {
		s.logger.Debugw("close after disconnect", "error", cerr)
	}

	return true, errFactory("Run", sdkerr.ErrWSRead, readErr)
}

func (s *Session) readLoop(client ws.Client) error {
	for {
		data, err := client.ReadMessage()
		if err != nil {
			return err
		}
		s.received.Inc()
		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	msg, err := mux.ParseMessage(data)
	if err != nil {
		s.malformed.Inc()
		s.logger.Debugw("drop inbound frame", "error", err)
		return
	}

	if msg.Channel == pongChannel {
		s.handlePong()
		return
	}

	s.mux.Route(msg)
}

func (s *Session) handlePong() {
	s.mu.Lock()
	sentAt := s.pingSentAt
	s.pingSentAt = time.Time{}
	s.mu.Unlock()

	if sentAt.IsZero() {
		return
	}
	latency := s.now().Sub(sentAt)
	s.lastLatency.Store(int64(latency))
	if s.onLatency != nil {
		s.onLatency(latency)
	}
}

func (s *Session) startPinger(ctx context.Context, client ws.Client) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sendPing(client); err != nil {
				s.logger.Errorw("ping failed, closing connection", "error", err)
				_ = client.Close()
				return
			}
		}
	}
}

func (s *Session) sendPing(client ws.Client) error {
	s.mu.Lock()
	s.pingSentAt = s.now()
	s.mu.Unlock()

	if err := client.WriteMessage(pingFrame); err != nil {
		return errFactory("sendPing", sdkerr.ErrWSPing, err)
	}
	return nil
}

func (s *Session) setState(st mux.ReadyState) {
	if s.mux.State() == st {
		return
	}
	s.mux.SetState(st)
	s.logger.Debugw("state changed", "state", st.String())
	if s.onStateChange != nil {
		s.onStateChange(st)
	}
}

func (s *Session) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Session) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > s.maxDelay {
		d = s.maxDelay
	}
	return d
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	connects := s.connects.Get()
	var reconnects uint64
	if connects > 1 {
		reconnects = connects - 1
	}
	return Stats{
		State:       s.mux.State(),
		Connects:    connects,
		Reconnects:  reconnects,
		Received:    s.received.Get(),
		Malformed:   s.malformed.Get(),
		LastLatency: time.Duration(s.lastLatency.Load()),
	}
}

func errFactory(op string, kind error, cause error) *sdkerr.SDKError {
	return sdkerr.New(subsys, fmt.Sprintf("Session.%s", op), kind, cause)
}
