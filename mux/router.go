package mux

import (
	"fmt"

	"github.com/IvanTurko/perpstream-go/sdkerr"
)

// HandleMessage parses an inbound frame and routes it. Malformed frames are
// logged and dropped; the registry is left untouched.
func (m *Multiplexer) HandleMessage(data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		m.debugf("drop inbound frame: %v", err)
		return
	}
	m.Route(msg)
}

// Route invokes every handler registered on msg.Channel, in registration order,
// on the calling goroutine. Messages for channels nobody listens on are dropped.
//
// A panicking handler is recovered and reported through WithOnHandlerFault; the
// remaining handlers still receive the message.
func (m *Multiplexer) Route(msg *Message) {
	if msg == nil {
		return
	}

	m.mu.Lock()
	entries := m.reg.get(msg.Channel)
	handlers := make([]Handler, len(entries))
	for i, e := range entries {
		handlers[i] = e.Handler
	}
	m.mu.Unlock()

	for _, h := range handlers {
		m.invoke(msg, h)
	}
}

func (m *Multiplexer) invoke(msg *Message, h Handler) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := errFactory("Route", sdkerr.ErrHandlerFault, fmt.Errorf("%v", r)).
			WithMessage(fmt.Sprintf("channel %q", msg.Channel))
		m.errorf("%v", err)
		if m.onHandlerFault != nil {
			m.onHandlerFault(msg.Channel, err)
		}
	}()

	h(msg.Data)
}
