package feeds

import (
	"encoding/json"

	"github.com/IvanTurko/perpstream-go/mux"
)

const channelTrades = "trades"

// Trades subscribes to public trades of coin. Each call of onData receives the
// non-empty batch of trades of that coin carried by one message.
//
// Panics:
//   - sub is nil
//   - coin is empty
//   - onData is nil
func Trades(
	sub Subscriber,
	coin string,
	onData func([]Trade),
	opts ...Option,
) (*Feed, error) {
	if sub == nil {
		panic("Trades: subscriber is nil")
	}
	if coin == "" {
		panic("Trades: invalid coin name")
	}
	if onData == nil {
		panic("Trades: onData function is nil")
	}

	decode := func(data json.RawMessage) ([]Trade, bool, error) {
		trades, err := decodeAs[[]Trade](data)
		if err != nil {
			return nil, false, err
		}
		out := trades[:0]
		for _, t := range trades {
			if t.Coin == coin {
				out = append(out, t)
			}
		}
		return out, len(out) > 0, nil
	}

	return open(sub, channelTrades, mux.Payload{"coin": coin}, decode, onData, opts)
}
