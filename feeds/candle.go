package feeds

import (
	"encoding/json"

	"github.com/IvanTurko/perpstream-go/mux"
)

const channelCandle = "candle"

// CandleInterval is a server-defined candlestick interval.
type CandleInterval string

const (
	Candle1Min   CandleInterval = "1m"
	Candle3Min   CandleInterval = "3m"
	Candle5Min   CandleInterval = "5m"
	Candle15Min  CandleInterval = "15m"
	Candle30Min  CandleInterval = "30m"
	Candle1Hour  CandleInterval = "1h"
	Candle2Hour  CandleInterval = "2h"
	Candle4Hour  CandleInterval = "4h"
	Candle8Hour  CandleInterval = "8h"
	Candle12Hour CandleInterval = "12h"
	Candle1Day   CandleInterval = "1d"
	Candle3Day   CandleInterval = "3d"
	Candle1Week  CandleInterval = "1w"
	Candle1Month CandleInterval = "1M"
)

// IsValid reports whether i is one of the intervals the server accepts.
func (i CandleInterval) IsValid() bool {
	switch i {
	case Candle1Min, Candle3Min, Candle5Min, Candle15Min, Candle30Min,
		Candle1Hour, Candle2Hour, Candle4Hour, Candle8Hour, Candle12Hour,
		Candle1Day, Candle3Day, Candle1Week, Candle1Month:
		return true
	default:
		return false
	}
}

// Candles subscribes to candlestick updates of coin at interval.
//
// coin is the asset name, e.g. "BTC".
// onData is called for every candle of that coin and interval.
//
// Panics:
//   - sub is nil
//   - coin is empty
//   - interval is invalid
//   - onData is nil
func Candles(
	sub Subscriber,
	coin string,
	interval CandleInterval,
	onData func(Candle),
	opts ...Option,
) (*Feed, error) {
	if sub == nil {
		panic("Candles: subscriber is nil")
	}
	if coin == "" {
		panic("Candles: invalid coin name")
	}
	if !interval.IsValid() {
		panic("Candles: invalid interval")
	}
	if onData == nil {
		panic("Candles: onData function is nil")
	}

	decode := func(data json.RawMessage) (Candle, bool, error) {
		c, err := decodeAs[Candle](data)
		if err != nil {
			return c, false, err
		}
		return c, c.Coin == coin && c.Interval == interval, nil
	}

	payload := mux.Payload{"coin": coin, "interval": string(interval)}
	return open(sub, channelCandle, payload, decode, onData, opts)
}
