package mux

import (
	"fmt"
	"sync"

	"github.com/IvanTurko/perpstream-go/sdkerr"
)

const subsys = "mux"

// ReadyState is the link state of the shared connection. The ordinals follow
// the browser WebSocket readyState values.
type ReadyState int

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Writer transmits one text frame over the shared connection.
//
// The Multiplexer never calls WriteMessage while holding its state lock, so a
// slow write delays other writers but never Route. Writes are issued in the
// order the registry changes that produced them.
type Writer interface {
	WriteMessage([]byte) error
}

// Logger is an interface for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Option is a function type for Multiplexer options.
type Option func(*Multiplexer)

// WithLogger sets the logger for the multiplexer.
func WithLogger(l Logger) Option {
	return func(m *Multiplexer) {
		m.logger = l
	}
}

// WithOnSendFailure registers a callback for subscribe/unsubscribe requests the
// writer rejected. Failed sends are not retried.
func WithOnSendFailure(f func(error)) Option {
	return func(m *Multiplexer) {
		m.onSendFailure = f
	}
}

// WithOnHandlerFault registers a callback for handlers that panicked during dispatch.
func WithOnHandlerFault(f func(channel string, err error)) Option {
	return func(m *Multiplexer) {
		m.onHandlerFault = f
	}
}

// Multiplexer shares one connection among many channel subscriptions.
//
// It owns the channel registry, keeps it in sync with the wire while the
// connection is open, replays it whenever the connection (re)opens and routes
// inbound messages to the handlers registered for their channel.
type Multiplexer struct {
	w      Writer
	logger Logger

	onSendFailure  func(error)
	onHandlerFault func(channel string, err error)

	mu     sync.Mutex
	reg    *registry
	state  ReadyState
	issued uint64 // write tickets handed out, guarded by mu

	// Batches are written in ticket order. served is guarded by wmu.
	wmu    sync.Mutex
	wturn  *sync.Cond
	served uint64
}

// New creates a Multiplexer writing subscription traffic to w.
// The initial state is StateConnecting: nothing is sent until SetState(StateOpen).
//
// Panics if w is nil.
func New(w Writer, opts ...Option) *Multiplexer {
	if w == nil {
		panic("mux.New: writer must not be nil")
	}

	m := &Multiplexer{
		w:     w,
		reg:   newRegistry(),
		state: StateConnecting,
	}

	m.wturn = sync.NewCond(&m.wmu)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Subscribe registers cfg on channel.
//
//   - cfg.Single: the channel's entries are replaced by cfg. Every evicted payload
//     is unsubscribed on the wire, then cfg.Payload is subscribed. When an evicted
//     entry already carried cfg.Payload only the handler is swapped.
//   - A structurally equal payload is already registered: no-op, nothing is sent.
//   - Otherwise cfg is appended and cfg.Payload is subscribed on the wire.
//
// Wire traffic is deferred while the connection is not open; the entry is
// replayed once it opens.
//
// Subscribing a cfg that is already registered on channel is a no-op.
//
// Errors:
//   - sdkerr.ErrChannelExclusive: channel is held by a single entry and cfg is not single.
//   - sdkerr.ErrValidation: cfg.Payload cannot be encoded as JSON.
//
// Panics if channel is empty, cfg is nil or cfg.Handler is nil.
func (m *Multiplexer) Subscribe(channel string, cfg *Config) error {
	if channel == "" {
		panic("Multiplexer.Subscribe: channel must not be empty")
	}
	if cfg == nil {
		panic("Multiplexer.Subscribe: config must not be nil")
	}
	if cfg.Handler == nil {
		panic("Multiplexer.Subscribe: handler must not be nil")
	}

	if _, err := cfg.Payload.canonical(); err != nil {
		return errFactory("Subscribe", sdkerr.ErrValidation, err).
			WithMessage(fmt.Sprintf("channel %q", channel))
	}

	m.mu.Lock()
	var out []outbound
	defer func() { m.flush(out) }()

	if m.reg.contains(channel, cfg) {
		m.debugf("subscribe %s %v: config already registered", channel, cfg.Payload)
		return nil
	}

	if cfg.Single {
		prev := m.reg.replace(channel, cfg)
		live := false
		for _, e := range prev {
			if e.Payload.Equal(cfg.Payload) {
				live = true
				continue
			}
			out = m.queue(out, methodUnsubscribe, channel, e.Payload)
		}
		if !live {
			out = m.queue(out, methodSubscribe, channel, cfg.Payload)
		}
		return nil
	}

	if m.reg.find(channel, cfg.Payload) != nil {
		m.debugf("subscribe %s %v: already registered", channel, cfg.Payload)
		return nil
	}

	if entries := m.reg.get(channel); len(entries) == 1 && entries[0].Single {
		return errFactory("Subscribe", sdkerr.ErrChannelExclusive, nil).
			WithMessage(fmt.Sprintf("channel %q", channel))
	}

	m.reg.add(channel, cfg)
	out = m.queue(out, methodSubscribe, channel, cfg.Payload)
	return nil
}

// Unsubscribe removes the entry registered with cfg and unsubscribes its
// payload on the wire if the connection is open. Unknown configs are ignored,
// so calling it twice is safe.
func (m *Multiplexer) Unsubscribe(channel string, cfg *Config) {
	if cfg == nil {
		return
	}

	m.mu.Lock()
	var out []outbound
	defer func() { m.flush(out) }()

	if !m.reg.remove(channel, cfg) {
		return
	}
	if m.reg.find(channel, cfg.Payload) == nil {
		out = m.queue(out, methodUnsubscribe, channel, cfg.Payload)
	}
}

// UnsubscribeAllByChannel removes every entry of channel and unsubscribes each
// distinct payload on the wire, leaving no server-side subscription behind.
func (m *Multiplexer) UnsubscribeAllByChannel(channel string) {
	m.mu.Lock()
	var out []outbound
	defer func() { m.flush(out) }()

	removed := m.reg.removeAll(channel)
	sent := make([]Payload, 0, len(removed))

next:
	for _, e := range removed {
		for _, p := range sent {
			if p.Equal(e.Payload) {
				continue next
			}
		}
		sent = append(sent, e.Payload)
		out = m.queue(out, methodUnsubscribe, channel, e.Payload)
	}
}

// SetState records the connection state. On every transition into StateOpen
// the whole registry is re-announced on the wire, one subscribe per entry.
// Leaving StateOpen sends nothing; entries stay registered.
func (m *Multiplexer) SetState(s ReadyState) {
	m.mu.Lock()
	var out []outbound
	defer func() { m.flush(out) }()

	prev := m.state
	m.state = s
	if s != StateOpen || prev == StateOpen {
		return
	}

	regs := m.reg.snapshot()
	m.debugf("connection open, replaying %d subscriptions", len(regs))
	for _, r := range regs {
		out = m.queue(out, methodSubscribe, r.channel, r.entry.Payload)
	}
}

// State returns the last state passed to SetState.
func (m *Multiplexer) State() ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Channels returns the channels that currently have at least one entry.
func (m *Multiplexer) Channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.channelNames()
}

// Registered reports whether cfg itself is currently an entry of channel.
// A cfg dropped as a duplicate, evicted by a single subscribe or unsubscribed
// is not registered.
func (m *Multiplexer) Registered(channel string, cfg *Config) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.contains(channel, cfg)
}

// Len returns the number of entries registered on channel.
func (m *Multiplexer) Len(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reg.get(channel))
}

type outbound struct {
	meth    method
	channel string
	payload Payload
}

// queue must be called with m.mu held. Nothing is queued while the connection
// is not open; SetState replays the registry once it opens.
func (m *Multiplexer) queue(out []outbound, meth method, channel string, p Payload) []outbound {
	if m.state != StateOpen {
		m.debugf("%s %s %v: deferred, connection %s", meth, channel, p, m.state)
		return out
	}
	return append(out, outbound{meth: meth, channel: channel, payload: p})
}

// flush must be called with m.mu held and releases it. The batch takes a
// ticket under mu and waits for its turn without it, so batches hit the wire
// in registry-change order while Route and other callers keep going.
func (m *Multiplexer) flush(out []outbound) {
	if len(out) == 0 {
		m.mu.Unlock()
		return
	}

	ticket := m.issued
	m.issued++
	m.mu.Unlock()

	m.wmu.Lock()
	for m.served != ticket {
		m.wturn.Wait()
	}
	m.wmu.Unlock()

	var failures []error
	for _, o := range out {
		if err := m.send(o); err != nil {
			failures = append(failures, err)
		}
	}

	m.wmu.Lock()
	m.served++
	m.wturn.Broadcast()
	m.wmu.Unlock()

	m.reportSendFailures(failures)
}

func (m *Multiplexer) send(o outbound) error {
	msg, err := newRequest(o.meth, o.channel, o.payload)
	if err == nil {
		err = m.w.WriteMessage(msg)
	}
	if err != nil {
		err = errFactory("send", sdkerr.ErrSendFailure, err).
			WithMessage(fmt.Sprintf("%s %s", o.meth, o.channel))
		m.errorf("%v", err)
		return err
	}

	m.debugf("%s %s %v", o.meth, o.channel, o.payload)
	return nil
}

func (m *Multiplexer) reportSendFailures(failures []error) {
	if m.onSendFailure == nil {
		return
	}
	for _, err := range failures {
		m.onSendFailure(err)
	}
}

func (m *Multiplexer) debugf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Debugf(format, args...)
	}
}

func (m *Multiplexer) errorf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Errorf(format, args...)
	}
}

func errFactory(op string, kind error, cause error) *sdkerr.SDKError {
	return sdkerr.New(subsys, fmt.Sprintf("Multiplexer.%s", op), kind, cause)
}
