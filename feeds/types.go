package feeds

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the aggressor side of a trade or fill.
type Side string

const (
	SideBuy  Side = "B"
	SideSell Side = "A"
)

// Level is one price level of an order book.
type Level struct {
	Price  decimal.Decimal `json:"px"`
	Size   decimal.Decimal `json:"sz"`
	Orders int             `json:"n"`
}

// L2BookSnapshot is an order book snapshot. Bids are sorted best first, as are Asks.
type L2BookSnapshot struct {
	Coin string
	Time int64
	Bids []Level
	Asks []Level
}

type l2BookJSON struct {
	Coin   string    `json:"coin"`
	Time   int64     `json:"time"`
	Levels [][]Level `json:"levels"`
}

func (b *L2BookSnapshot) UnmarshalJSON(data []byte) error {
	var tmp l2BookJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.Levels) != 2 {
		return fmt.Errorf("invalid levels: want 2 sides, got %d", len(tmp.Levels))
	}

	b.Coin = tmp.Coin
	b.Time = tmp.Time
	b.Bids = tmp.Levels[0]
	b.Asks = tmp.Levels[1]
	return nil
}

// BBO is the best bid and offer of a coin. Either side is nil when the book
// side is empty.
type BBO struct {
	Coin string
	Time int64
	Bid  *Level
	Ask  *Level
}

type bboJSON struct {
	Coin string   `json:"coin"`
	Time int64    `json:"time"`
	BBO  []*Level `json:"bbo"`
}

func (b *BBO) UnmarshalJSON(data []byte) error {
	var tmp bboJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.BBO) != 2 {
		return fmt.Errorf("invalid bbo: want 2 sides, got %d", len(tmp.BBO))
	}

	b.Coin = tmp.Coin
	b.Time = tmp.Time
	b.Bid = tmp.BBO[0]
	b.Ask = tmp.BBO[1]
	return nil
}

// Candle is a single candlestick update.
type Candle struct {
	OpenTime  int64           `json:"t"`
	CloseTime int64           `json:"T"`
	Coin      string          `json:"s"`
	Interval  CandleInterval  `json:"i"`
	Open      decimal.Decimal `json:"o"`
	Close     decimal.Decimal `json:"c"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Volume    decimal.Decimal `json:"v"`
	Trades    int64           `json:"n"`
}

// Trade is a public trade.
type Trade struct {
	Coin  string          `json:"coin"`
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"px"`
	Size  decimal.Decimal `json:"sz"`
	Hash  string          `json:"hash"`
	Time  int64           `json:"time"`
	TID   int64           `json:"tid"`
	// Users holds the buyer and the seller address.
	Users [2]string `json:"users"`
}

// Fill is a user's own execution.
type Fill struct {
	Coin          string           `json:"coin"`
	Price         decimal.Decimal  `json:"px"`
	Size          decimal.Decimal  `json:"sz"`
	Side          Side             `json:"side"`
	Time          int64            `json:"time"`
	StartPosition decimal.Decimal  `json:"startPosition"`
	Dir           string           `json:"dir"`
	ClosedPnl     decimal.Decimal  `json:"closedPnl"`
	Hash          string           `json:"hash"`
	OID           int64            `json:"oid"`
	Crossed       bool             `json:"crossed"`
	Fee           decimal.Decimal  `json:"fee"`
	TID           int64            `json:"tid"`
	FeeToken      string           `json:"feeToken"`
	Liquidation   *FillLiquidation `json:"liquidation,omitempty"`
}

// FillLiquidation is set on fills that were part of a liquidation.
type FillLiquidation struct {
	LiquidatedUser string          `json:"liquidatedUser"`
	MarkPrice      decimal.Decimal `json:"markPx"`
	Method         string          `json:"method"`
}

// UserFills is a batch of fills. The first message after subscribing is a
// snapshot of recent fills.
type UserFills struct {
	IsSnapshot bool   `json:"isSnapshot"`
	User       string `json:"user"`
	Fills      []Fill `json:"fills"`
}

type allMidsJSON struct {
	Mids map[string]decimal.Decimal `json:"mids"`
}
