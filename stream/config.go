package stream

import (
	"github.com/IvanTurko/perpstream-go/config"
	"github.com/IvanTurko/perpstream-go/ws"
	"go.uber.org/zap"
)

// NewFromConfig creates a Session from a validated configuration. Extra
// options are applied after the ones derived from cfg.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, opts ...Option) *Session {
	base := []Option{
		WithLogger(logger),
		WithReconnectDelay(cfg.Reconnect.BaseDelay, cfg.Reconnect.MaxDelay),
		WithPingInterval(cfg.PingInterval),
		WithClientOptions(
			ws.WithWriteTimeout(cfg.WriteTimeout),
			ws.WithReadBuffer(cfg.ReadBuffer),
			ws.WithReadLimit(cfg.ReadLimit),
		),
	}
	return New(cfg.URL, append(base, opts...)...)
}
