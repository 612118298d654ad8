package feeds

import (
	"encoding/json"

	"github.com/IvanTurko/perpstream-go/mux"
)

const channelL2Book = "l2Book"

// L2Book subscribes to order book snapshots of coin.
//
// Panics:
//   - sub is nil
//   - coin is empty
//   - onData is nil
func L2Book(
	sub Subscriber,
	coin string,
	onData func(L2BookSnapshot),
	opts ...Option,
) (*Feed, error) {
	if sub == nil {
		panic("L2Book: subscriber is nil")
	}
	if coin == "" {
		panic("L2Book: invalid coin name")
	}
	if onData == nil {
		panic("L2Book: onData function is nil")
	}

	decode := func(data json.RawMessage) (L2BookSnapshot, bool, error) {
		b, err := decodeAs[L2BookSnapshot](data)
		if err != nil {
			return b, false, err
		}
		return b, b.Coin == coin, nil
	}

	return open(sub, channelL2Book, mux.Payload{"coin": coin}, decode, onData, opts)
}

const channelBBO = "bbo"

// BestBidOffer subscribes to best bid and offer updates of coin.
//
// Panics:
//   - sub is nil
//   - coin is empty
//   - onData is nil
func BestBidOffer(
	sub Subscriber,
	coin string,
	onData func(BBO),
	opts ...Option,
) (*Feed, error) {
	if sub == nil {
		panic("BestBidOffer: subscriber is nil")
	}
	if coin == "" {
		panic("BestBidOffer: invalid coin name")
	}
	if onData == nil {
		panic("BestBidOffer: onData function is nil")
	}

	decode := func(data json.RawMessage) (BBO, bool, error) {
		b, err := decodeAs[BBO](data)
		if err != nil {
			return b, false, err
		}
		return b, b.Coin == coin, nil
	}

	return open(sub, channelBBO, mux.Payload{"coin": coin}, decode, onData, opts)
}
