package main

import (
	"fmt"

	"github.com/IvanTurko/perpstream-go/config"
	"github.com/IvanTurko/perpstream-go/feeds"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// openFeeds subscribes every configured feed and logs what it receives. On
// error the feeds opened so far are closed.
func openFeeds(sub feeds.Subscriber, cfgs []config.FeedConfig, logger *zap.Logger) ([]*feeds.Feed, error) {
	opened := make([]*feeds.Feed, 0, len(cfgs))
	for i, fc := range cfgs {
		f, err := openFeed(sub, fc, logger.With(zap.String("channel", fc.Channel)))
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
			return nil, fmt.Errorf("feeds[%d] %s: %w", i, fc.Channel, err)
		}
		opened = append(opened, f)
	}
	return opened, nil
}

func openFeed(sub feeds.Subscriber, fc config.FeedConfig, logger *zap.Logger) (*feeds.Feed, error) {
	opts := []feeds.Option{
		feeds.WithOnInvalid(func(err error) {
			logger.Warn("invalid payload", zap.Error(err))
		}),
	}
	if fc.Single {
		opts = append(opts, feeds.WithSingle())
	}

	switch fc.Channel {
	case "candle":
		interval := feeds.CandleInterval(fc.Interval)
		if !interval.IsValid() {
			return nil, fmt.Errorf("invalid candle interval %q", fc.Interval)
		}
		return feeds.Candles(sub, fc.Coin, interval, func(c feeds.Candle) {
			logger.Info("candle",
				zap.String("coin", c.Coin),
				zap.String("interval", string(c.Interval)),
				zap.Stringer("open", c.Open),
				zap.Stringer("close", c.Close),
				zap.Stringer("volume", c.Volume),
			)
		}, opts...)
	case "l2Book":
		return feeds.L2Book(sub, fc.Coin, func(b feeds.L2BookSnapshot) {
			fields := []zap.Field{zap.String("coin", b.Coin), zap.Int("bids", len(b.Bids)), zap.Int("asks", len(b.Asks))}
			if len(b.Bids) > 0 && len(b.Asks) > 0 {
				fields = append(fields, zap.Stringer("spread", b.Asks[0].Price.Sub(b.Bids[0].Price)))
			}
			logger.Info("l2Book", fields...)
		}, opts...)
	case "trades":
		return feeds.Trades(sub, fc.Coin, func(trades []feeds.Trade) {
			for _, t := range trades {
				logger.Info("trade",
					zap.String("coin", t.Coin),
					zap.String("side", string(t.Side)),
					zap.Stringer("px", t.Price),
					zap.Stringer("sz", t.Size),
				)
			}
		}, opts...)
	case "bbo":
		return feeds.BestBidOffer(sub, fc.Coin, func(b feeds.BBO) {
			fields := []zap.Field{zap.String("coin", b.Coin)}
			if b.Bid != nil {
				fields = append(fields, zap.Stringer("bid", b.Bid.Price))
			}
			if b.Ask != nil {
				fields = append(fields, zap.Stringer("ask", b.Ask.Price))
			}
			logger.Info("bbo", fields...)
		}, opts...)
	case "allMids":
		return feeds.AllMids(sub, func(mids map[string]decimal.Decimal) {
			logger.Debug("allMids", zap.Int("coins", len(mids)))
		}, opts...)
	case "userFills":
		return feeds.UserFillsOf(sub, fc.User, func(uf feeds.UserFills) {
			logger.Info("userFills",
				zap.String("user", uf.User),
				zap.Bool("snapshot", uf.IsSnapshot),
				zap.Int("fills", len(uf.Fills)),
			)
		}, opts...)
	case "liquidations":
		return feeds.Liquidations(sub, fc.User, func(fills []feeds.Fill) {
			for _, f := range fills {
				logger.Warn("liquidation",
					zap.String("coin", f.Coin),
					zap.Stringer("px", f.Price),
					zap.Stringer("sz", f.Size),
					zap.String("method", f.Liquidation.Method),
				)
			}
		}, opts...)
	default:
		return nil, fmt.Errorf("unsupported channel %q", fc.Channel)
	}
}
