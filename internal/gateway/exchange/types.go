package exchange

import (
	"github.com/shopspring/decimal"

	"predictbot/internal/types"
)

// OrderState is the normalized view of an exchange-side order. The raw API
// payload is kept alongside so notifications can surface exchange-reported
// details (fill amount, price) without re-fetching.
type OrderState struct {
	Hash         string
	ExchangeID   string
	Status       types.OrderStatus
	Price        decimal.Decimal
	AmountFilled decimal.Decimal
	Raw          []byte
}

// CancelResult partitions a cancel batch. Removed ids were resting and got
// pulled; Noop ids were already absent from the book (filled or cancelled
// elsewhere). Both count as cleared. Ids in neither list failed to cancel.
type CancelResult struct {
	Removed []string
	Noop    []string
}

// Cleared reports whether every id in the request is accounted for.
func (r CancelResult) Cleared(requested []string) bool {
	return len(r.Removed)+len(r.Noop) == len(requested)
}

// PlacementRequest describes one limit order to submit.
type PlacementRequest struct {
	MarketID int64
	TokenID  string
	Side     types.Side
	Price    decimal.Decimal
	Amount   decimal.Decimal
}

// PlacementResult is the outcome of one placement; results come back in the
// same order as the requests.
type PlacementResult struct {
	Success    bool
	Hash       string
	ExchangeID string
	Err        string
}

// Market carries the denormalized metadata stored with each order.
type Market struct {
	ID    int64
	Title string
	Slug  string
}
