package mux

import (
	"encoding/json"
	"testing"

	"github.com/IvanTurko/perpstream-go/internal/testutil"
	"github.com/IvanTurko/perpstream-go/sdkerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		msg, err := ParseMessage([]byte(`{"channel":"candle","data":{"s":"BTC"}}`))
		require.NoError(t, err)
		assert.Equal(t, "candle", msg.Channel)
		assert.JSONEq(t, `{"s":"BTC"}`, string(msg.Data))
	})

	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `hello`},
		{"array", `[1,2]`},
		{"broken object", `{"channel":`},
		{"missing channel", `{"data":{}}`},
		{"channel not a string", `{"channel":1,"data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.data))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, sdkerr.ErrMalformedMessage)
		})
	}
}

func TestMultiplexer_Route(t *testing.T) {
	m := New(&testutil.RecordingWriter{})

	var calls []string
	record := func(name string) Handler {
		return func(data json.RawMessage) {
			calls = append(calls, name+":"+string(data))
		}
	}

	require.NoError(t, m.Subscribe("candle", &Config{Payload: Payload{"coin": "BTC"}, Handler: record("c1")}))
	require.NoError(t, m.Subscribe("candle", &Config{Payload: Payload{"coin": "ETH"}, Handler: record("c2")}))
	require.NoError(t, m.Subscribe("trades", &Config{Payload: Payload{"coin": "BTC"}, Handler: record("t1")}))

	m.HandleMessage([]byte(`{"channel":"candle","data":"D"}`))

	assert.Equal(t, []string{`c1:"D"`, `c2:"D"`}, calls)

	t.Run("unknown channel is dropped", func(t *testing.T) {
		calls = nil
		m.HandleMessage([]byte(`{"channel":"subscriptionResponse","data":{}}`))
		assert.Empty(t, calls)
	})

	t.Run("nil message", func(t *testing.T) {
		assert.NotPanics(t, func() { m.Route(nil) })
	})
}

func TestMultiplexer_HandleMessage_Malformed(t *testing.T) {
	m := New(&testutil.RecordingWriter{})
	called := false
	require.NoError(t, m.Subscribe("candle", &Config{Handler: func(json.RawMessage) { called = true }}))

	assert.NotPanics(t, func() {
		m.HandleMessage([]byte(`not json at all`))
		m.HandleMessage(nil)
	})

	assert.False(t, called)
	assert.Equal(t, []string{"candle"}, m.Channels())
	assert.Equal(t, 1, m.Len("candle"))
}

func TestMultiplexer_Route_HandlerFault(t *testing.T) {
	var (
		faultChannel string
		faultErr     error
	)
	m := New(&testutil.RecordingWriter{}, WithOnHandlerFault(func(channel string, err error) {
		faultChannel = channel
		faultErr = err
	}))

	var got []string
	require.NoError(t, m.Subscribe("l2Book", &Config{Payload: Payload{"coin": "BTC"}, Handler: func(json.RawMessage) {
		got = append(got, "first")
	}}))
	require.NoError(t, m.Subscribe("l2Book", &Config{Payload: Payload{"coin": "ETH"}, Handler: func(json.RawMessage) {
		panic("boom")
	}}))
	require.NoError(t, m.Subscribe("l2Book", &Config{Payload: Payload{"coin": "SOL"}, Handler: func(json.RawMessage) {
		got = append(got, "third")
	}}))

	assert.NotPanics(t, func() {
		m.HandleMessage([]byte(`{"channel":"l2Book","data":{}}`))
	})

	assert.Equal(t, []string{"first", "third"}, got)
	assert.Equal(t, "l2Book", faultChannel)
	require.Error(t, faultErr)
	assert.ErrorIs(t, faultErr, sdkerr.ErrHandlerFault)
	assert.Contains(t, faultErr.Error(), "boom")
}

func TestMultiplexer_Route_HandlerMaySubscribe(t *testing.T) {
	m, w := newOpenMux(t)

	var cfg *Config
	cfg = &Config{Payload: Payload{"coin": "BTC"}, Handler: func(json.RawMessage) {
		m.Unsubscribe("trades", cfg)
		_ = m.Subscribe("trades", &Config{Payload: Payload{"coin": "ETH"}, Handler: noop})
	}}
	require.NoError(t, m.Subscribe("trades", cfg))
	w.Reset()

	m.HandleMessage([]byte(`{"channel":"trades","data":[]}`))

	assert.Equal(t, []testutil.Request{
		{Method: "unsubscribe", Subscription: map[string]any{"type": "trades", "coin": "BTC"}},
		{Method: "subscribe", Subscription: map[string]any{"type": "trades", "coin": "ETH"}},
	}, w.Requests(t))
}
