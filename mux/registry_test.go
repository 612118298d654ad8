package mux

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(json.RawMessage) {}

func entry(p Payload) *Config {
	return &Config{Payload: p, Handler: noop}
}

func TestRegistry_AddGet(t *testing.T) {
	r := newRegistry()
	e1, e2 := entry(Payload{"coin": "BTC"}), entry(Payload{"coin": "ETH"})

	assert.Empty(t, r.get("trades"))

	r.add("trades", e1)
	r.add("trades", e2)

	assert.Equal(t, []*Config{e1, e2}, r.get("trades"))
	assert.Equal(t, []string{"trades"}, r.channelNames())
}

func TestRegistry_Replace(t *testing.T) {
	r := newRegistry()
	e1, e2, e3 := entry(Payload{"coin": "BTC"}), entry(Payload{"coin": "ETH"}), entry(Payload{"coin": "SOL"})
	r.add("l2Book", e1)
	r.add("l2Book", e2)

	prev := r.replace("l2Book", e3)

	assert.Equal(t, []*Config{e1, e2}, prev)
	assert.Equal(t, []*Config{e3}, r.get("l2Book"))

	prev = r.replace("candle", e1)
	assert.Nil(t, prev)
	assert.Equal(t, []string{"l2Book", "candle"}, r.channelNames())
}

func TestRegistry_Remove(t *testing.T) {
	t.Run("by identity", func(t *testing.T) {
		r := newRegistry()
		e1 := entry(Payload{"coin": "BTC"})
		twin := entry(Payload{"coin": "BTC"})
		r.add("trades", e1)

		assert.False(t, r.remove("trades", twin), "equal payload but different config")
		assert.True(t, r.remove("trades", e1))
		assert.False(t, r.remove("trades", e1))
	})

	t.Run("prunes empty channel", func(t *testing.T) {
		r := newRegistry()
		e1, e2 := entry(Payload{"coin": "BTC"}), entry(Payload{"coin": "ETH"})
		r.add("trades", e1)
		r.add("trades", e2)

		require.True(t, r.remove("trades", e1))
		assert.Equal(t, []*Config{e2}, r.get("trades"))

		require.True(t, r.remove("trades", e2))
		_, ok := r.channels["trades"]
		assert.False(t, ok)
		assert.Empty(t, r.channelNames())
	})
}

func TestRegistry_RemoveAll(t *testing.T) {
	r := newRegistry()
	e1, e2 := entry(Payload{"coin": "BTC"}), entry(Payload{"coin": "ETH"})
	r.add("bbo", e1)
	r.add("bbo", e2)

	assert.Equal(t, []*Config{e1, e2}, r.removeAll("bbo"))
	assert.Nil(t, r.removeAll("bbo"))
	assert.Empty(t, r.channelNames())
}

func TestRegistry_Find(t *testing.T) {
	r := newRegistry()
	e1 := entry(Payload{"coin": "BTC", "interval": "1m"})
	r.add("candle", e1)

	assert.Same(t, e1, r.find("candle", Payload{"interval": "1m", "coin": "BTC"}))
	assert.Nil(t, r.find("candle", Payload{"coin": "BTC", "interval": "5m"}))
	assert.Nil(t, r.find("trades", Payload{"coin": "BTC", "interval": "1m"}))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := newRegistry()
	a1, a2, b1 := entry(Payload{"n": 1}), entry(Payload{"n": 2}), entry(Payload{"n": 3})
	r.add("A", a1)
	r.add("B", b1)
	r.add("A", a2)

	assert.Equal(t, []registration{
		{channel: "A", entry: a1},
		{channel: "A", entry: a2},
		{channel: "B", entry: b1},
	}, r.snapshot())
}
