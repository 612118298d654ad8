package mux

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/IvanTurko/perpstream-go/sdkerr"
)

// Message is an inbound frame addressed to a channel.
type Message struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// ParseMessage decodes an inbound frame.
//
// Errors:
//   - sdkerr.ErrMalformedMessage: data is not a JSON object or has no channel.
func ParseMessage(data []byte) (*Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, sdkerr.New(subsys, "ParseMessage", sdkerr.ErrMalformedMessage, errors.New("not a JSON object"))
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, sdkerr.New(subsys, "ParseMessage", sdkerr.ErrMalformedMessage, err)
	}
	if msg.Channel == "" {
		return nil, sdkerr.New(subsys, "ParseMessage", sdkerr.ErrMalformedMessage, errors.New("missing channel"))
	}

	return &msg, nil
}

type method string

const (
	methodSubscribe   method = "subscribe"
	methodUnsubscribe method = "unsubscribe"
)

type wsRequestPayload struct {
	Method       method         `json:"method"`
	Subscription map[string]any `json:"subscription"`
}

func newRequest(m method, channel string, p Payload) ([]byte, error) {
	return json.Marshal(wsRequestPayload{
		Method:       m,
		Subscription: p.subscription(channel),
	})
}
