// Package pricing holds the pure price math for order repositioning: best-of-book
// selection, offset targets, and drift measurement. No I/O happens here.
package pricing

import (
	"github.com/shopspring/decimal"

	"predictbot/internal/types"
)

// One tick is 0.001 price units; prices themselves live in [0.001, 0.999]
// (exchange bounds). Cents are price units x100, the scale thresholds are
// configured in.
var (
	Tick     = decimal.New(1, -3)
	MinPrice = decimal.New(1, -3)
	MaxPrice = decimal.New(999, -3)
	one      = decimal.New(1, 0)
	cents    = decimal.New(100, 0)
)

// CurrentMarketPrice picks the reference price for a side: the best (highest)
// bid for BUY orders, the best (lowest) ask for SELL orders. ok is false when
// the required side of the book is empty; callers skip the order for the cycle.
func CurrentMarketPrice(book types.OrderBook, side types.Side) (decimal.Decimal, bool) {
	switch side {
	case types.SideBuy:
		return bestOf(book.Bids, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
	case types.SideSell:
		return bestOf(book.Asks, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
	}
	return decimal.Zero, false
}

// OutcomePrice is CurrentMarketPrice adjusted for the market leg: books quote
// the YES leg, so the NO leg price is its complement (1 - p).
func OutcomePrice(book types.OrderBook, side types.Side, outcome types.Outcome) (decimal.Decimal, bool) {
	p, ok := CurrentMarketPrice(book, side)
	if !ok {
		return decimal.Zero, false
	}
	if outcome == types.OutcomeNo {
		return one.Sub(p), true
	}
	return p, true
}

// TargetPrice derives the quote price from the current market price and the
// order's persisted tick offset: BUY quotes below the market, SELL above.
// The result is clamped to the exchange price bounds.
func TargetPrice(current decimal.Decimal, side types.Side, offsetTicks int) decimal.Decimal {
	delta := Tick.Mul(decimal.New(int64(offsetTicks), 0))
	var target decimal.Decimal
	if side == types.SideSell {
		target = current.Add(delta)
	} else {
		target = current.Sub(delta)
	}
	return Clamp(target)
}

// Clamp bounds a price to [MinPrice, MaxPrice].
func Clamp(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(MinPrice) {
		return MinPrice
	}
	if p.GreaterThan(MaxPrice) {
		return MaxPrice
	}
	return p
}

// DriftCents is the absolute difference between two prices expressed in cents.
func DriftCents(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs().Mul(cents)
}

// Cents converts a price to cents for display.
func Cents(p decimal.Decimal) decimal.Decimal {
	return p.Mul(cents)
}

// OffsetCents converts a tick offset to cents for display.
func OffsetCents(offsetTicks int) decimal.Decimal {
	return Tick.Mul(decimal.New(int64(offsetTicks), 0)).Mul(cents)
}

func bestOf(levels []types.PriceLevel, better func(a, b decimal.Decimal) bool) (decimal.Decimal, bool) {
	if len(levels) == 0 {
		return decimal.Zero, false
	}
	best := levels[0].Price
	for _, lvl := range levels[1:] {
		if better(lvl.Price, best) {
			best = lvl.Price
		}
	}
	return best, true
}
