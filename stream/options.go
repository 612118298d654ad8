package stream

import (
	"time"

	"github.com/IvanTurko/perpstream-go/mux"
	"github.com/IvanTurko/perpstream-go/ws"
	"go.uber.org/zap"
)

// Option is a function type for Session options.
type Option func(*Session)

// WithLogger sets the zap logger. The session, multiplexer and websocket client
// log through named children of l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.baseLogger = l
	}
}

// WithReconnectDelay sets the reconnect backoff: the first retry waits base,
// every further failed attempt doubles the wait up to max.
func WithReconnectDelay(base, maxDelay time.Duration) Option {
	return func(s *Session) {
		if base > 0 {
			s.baseDelay = base
		}
		if maxDelay >= s.baseDelay {
			s.maxDelay = maxDelay
		}
	}
}

// WithPingInterval sets the keepalive ping interval. The default is 50 seconds.
func WithPingInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

// WithOnDisconnect registers a callback for unexpected disconnections.
func WithOnDisconnect(f func(err error)) Option {
	return func(s *Session) {
		s.onDisconnect = f
	}
}

// WithOnStateChange registers a callback invoked after every connection state change.
func WithOnStateChange(f func(mux.ReadyState)) Option {
	return func(s *Session) {
		s.onStateChange = f
	}
}

// WithPingLatencyHandler registers a callback receiving ping/pong round trips.
func WithPingLatencyHandler(f func(time.Duration)) Option {
	return func(s *Session) {
		s.onLatency = f
	}
}

// WithMuxOptions forwards options to the session's Multiplexer.
func WithMuxOptions(opts ...mux.Option) Option {
	return func(s *Session) {
		s.muxOpts = append(s.muxOpts, opts...)
	}
}

// WithClientOptions forwards options to every websocket client the default
// factory creates. Ignored by NewWithFactory.
func WithClientOptions(opts ...ws.Option) Option {
	return func(s *Session) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}
