package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of a limit order. It never changes for the lifetime
// of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	}
	return "", false
}

// Outcome names the market leg an order targets.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// OrderStatus mirrors the exchange-side order state. OPEN is the only
// non-terminal status.
type OrderStatus string

const (
	OrderStatusOpen        OrderStatus = "OPEN"
	OrderStatusFilled      OrderStatus = "FILLED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
	OrderStatusExpired     OrderStatus = "EXPIRED"
	OrderStatusInvalidated OrderStatus = "INVALIDATED"
)

// Known reports whether s is a status this bot understands. The exchange may
// grow new statuses; unknown ones are persisted as-is but never acted on.
func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusOpen, OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired, OrderStatusInvalidated:
		return true
	}
	return false
}

// Terminal reports whether no further engine action is possible for s.
// Unrecognized statuses are NOT terminal: the engine keeps maintaining the
// order rather than abandoning it on a status it does not understand.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired, OrderStatusInvalidated:
		return true
	}
	return false
}

func NormalizeStatus(raw string) OrderStatus {
	return OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// PriceLevel is one row of an orderbook side.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook holds both sides of a market book. Levels arrive in arbitrary
// order; consumers compute best bid / best ask themselves.
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}
