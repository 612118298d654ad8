package mux

import "encoding/json"

// Handler receives the data body of every message routed to its channel.
type Handler func(data json.RawMessage)

// Config is one registered interest in a channel.
//
// The pointer passed to Subscribe identifies the entry: Unsubscribe removes
// the entry registered with the same pointer.
type Config struct {
	// Payload is sent to the server to select what the channel carries.
	Payload Payload
	// Handler is invoked with each inbound message body of the channel.
	Handler Handler
	// Single makes this entry the sole entry of its channel. Subscribing a
	// single entry evicts every entry previously held by the channel.
	Single bool
}

// registry maps a channel to its entries in insertion order.
// It is not safe for concurrent use; Multiplexer serializes access.
type registry struct {
	channels map[string][]*Config
	order    []string
}

func newRegistry() *registry {
	return &registry{
		channels: make(map[string][]*Config),
	}
}

func (r *registry) get(channel string) []*Config {
	return r.channels[channel]
}

func (r *registry) find(channel string, p Payload) *Config {
	for _, e := range r.channels[channel] {
		if e.Payload.Equal(p) {
			return e
		}
	}
	return nil
}

// contains reports whether e itself is registered on channel.
func (r *registry) contains(channel string, e *Config) bool {
	for _, cur := range r.channels[channel] {
		if cur == e {
			return true
		}
	}
	return false
}

func (r *registry) add(channel string, e *Config) {
	if _, ok := r.channels[channel]; !ok {
		r.order = append(r.order, channel)
	}
	r.channels[channel] = append(r.channels[channel], e)
}

// replace sets the channel's entries to [e] and returns the entries it held before.
func (r *registry) replace(channel string, e *Config) []*Config {
	prev, ok := r.channels[channel]
	if !ok {
		r.order = append(r.order, channel)
	}
	r.channels[channel] = []*Config{e}
	return prev
}

// remove deletes e from channel by identity. It reports whether e was present.
func (r *registry) remove(channel string, e *Config) bool {
	entries := r.channels[channel]
	for i, cur := range entries {
		if cur != e {
			continue
		}
		rest := make([]*Config, 0, len(entries)-1)
		rest = append(rest, entries[:i]...)
		rest = append(rest, entries[i+1:]...)
		if len(rest) == 0 {
			r.drop(channel)
		} else {
			r.channels[channel] = rest
		}
		return true
	}
	return false
}

func (r *registry) removeAll(channel string) []*Config {
	entries, ok := r.channels[channel]
	if !ok {
		return nil
	}
	r.drop(channel)
	return entries
}

func (r *registry) drop(channel string) {
	delete(r.channels, channel)
	for i, c := range r.order {
		if c == channel {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

type registration struct {
	channel string
	entry   *Config
}

// snapshot lists every (channel, entry) pair, channels in first-registration
// order and entries in insertion order.
func (r *registry) snapshot() []registration {
	var out []registration
	for _, ch := range r.order {
		for _, e := range r.channels[ch] {
			out = append(out, registration{channel: ch, entry: e})
		}
	}
	return out
}

func (r *registry) channelNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
