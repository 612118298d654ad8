// Package feeds decodes Hyperliquid channels into typed values on top of a
// mux.Multiplexer.
//
// Every constructor registers exactly one mux.Config and returns a Feed that
// owns it. Channels are shared between coins, so each feed drops messages that
// belong to another coin or user before calling onData.
//
// A multiplexer keeps one entry per channel and payload, so opening a feed
// equal to an open one fails with sdkerr.ErrDuplicateSubscription. UserFillsOf
// and Liquidations share a payload and cannot both be open for one user.
package feeds

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IvanTurko/perpstream-go/mux"
	"github.com/IvanTurko/perpstream-go/sdkerr"
)

// Subscriber is the part of mux.Multiplexer a Feed needs.
type Subscriber interface {
	Subscribe(channel string, cfg *mux.Config) error
	Unsubscribe(channel string, cfg *mux.Config)
	Registered(channel string, cfg *mux.Config) bool
}

// Option configures a Feed.
type Option func(*options)

type options struct {
	single    bool
	onInvalid func(error)
}

// WithSingle makes the feed the only subscription on its channel: opening it
// evicts every other entry of the channel, and later non-single subscribes fail
// with sdkerr.ErrChannelExclusive. Typical for a chart that shows one coin at a time.
func WithSingle() Option {
	return func(o *options) {
		o.single = true
	}
}

// WithOnInvalid registers the invalid-payload callback before the first message
// can arrive.
func WithOnInvalid(f func(error)) Option {
	return func(o *options) {
		o.onInvalid = f
	}
}

// Feed is a handle for one typed subscription.
type Feed struct {
	sub     Subscriber
	channel string
	cfg     *mux.Config

	mu        sync.RWMutex
	onInvalid func(error)
	closeOnce sync.Once
}

// decodeFunc turns raw channel data into a value; ok=false drops the message.
type decodeFunc[T any] func(data json.RawMessage) (v T, ok bool, err error)

func open[T any](
	sub Subscriber,
	channel string,
	payload mux.Payload,
	decode decodeFunc[T],
	onData func(T),
	opts []Option,
) (*Feed, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	f := &Feed{
		sub:       sub,
		channel:   channel,
		onInvalid: o.onInvalid,
	}
	f.cfg = &mux.Config{
		Payload: payload,
		Single:  o.single,
		Handler: func(data json.RawMessage) {
			v, ok, err := decode(data)
			if err != nil {
				f.invalid(fmt.Errorf("failed to unmarshal %s data: %v, raw: %s", channel, err, string(data)))
				return
			}
			if ok {
				onData(v)
			}
		},
	}

	if err := sub.Subscribe(channel, f.cfg); err != nil {
		return nil, err
	}
	if !sub.Registered(channel, f.cfg) {
		return nil, sdkerr.New("feeds", "open", sdkerr.ErrDuplicateSubscription, nil).
			WithMessage(fmt.Sprintf("channel %q payload %v", channel, payload))
	}
	return f, nil
}

// SetOnInvalid sets a callback invoked when a message for this feed cannot be
// decoded.
func (f *Feed) SetOnInvalid(fn func(error)) *Feed {
	f.mu.Lock()
	f.onInvalid = fn
	f.mu.Unlock()
	return f
}

// Channel returns the wire channel the feed listens on.
func (f *Feed) Channel() string {
	return f.channel
}

// Payload returns a copy of the subscription payload.
func (f *Feed) Payload() mux.Payload {
	out := make(mux.Payload, len(f.cfg.Payload))
	for k, v := range f.cfg.Payload {
		out[k] = v
	}
	return out
}

// Close unsubscribes the feed. Safe to call multiple times.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		f.sub.Unsubscribe(f.channel, f.cfg)
	})
}

func (f *Feed) invalid(err error) {
	f.mu.RLock()
	fn := f.onInvalid
	f.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func decodeAs[T any](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

var _ Subscriber = (*mux.Multiplexer)(nil)
