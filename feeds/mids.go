package feeds

import (
	"encoding/json"
	"errors"

	"github.com/IvanTurko/perpstream-go/mux"
	"github.com/shopspring/decimal"
)

const channelAllMids = "allMids"

// AllMids subscribes to mid prices of every coin.
//
// Panics:
//   - sub is nil
//   - onData is nil
func AllMids(
	sub Subscriber,
	onData func(map[string]decimal.Decimal),
	opts ...Option,
) (*Feed, error) {
	if sub == nil {
		panic("AllMids: subscriber is nil")
	}
	if onData == nil {
		panic("AllMids: onData function is nil")
	}

	decode := func(data json.RawMessage) (map[string]decimal.Decimal, bool, error) {
		m, err := decodeAs[allMidsJSON](data)
		if err != nil {
			return nil, false, err
		}
		if m.Mids == nil {
			return nil, false, errors.New("missing mids")
		}
		return m.Mids, true, nil
	}

	return open(sub, channelAllMids, mux.Payload{}, decode, onData, opts)
}
