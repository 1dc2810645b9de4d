package exchange

import (
	"context"

	"predictbot/internal/types"
)

// API is the slice of the exchange surface the sync engine consumes. It is
// intentionally small so the engine can be tested against mocks without
// importing the HTTP client.
type API interface {
	// GetOrder looks up exchange-side order state by hash. A missing order
	// returns ErrOrderNotFound; network timeouts surface as transient errors.
	GetOrder(ctx context.Context, hash string) (*OrderState, error)
	// GetOrderBook fetches the current book for a market.
	GetOrderBook(ctx context.Context, marketID int64) (types.OrderBook, error)
	// CancelOrders removes resting orders off-chain by exchange id.
	CancelOrders(ctx context.Context, ids []string) (CancelResult, error)
	// PlaceOrders submits a placement batch, one result per request in order.
	PlaceOrders(ctx context.Context, reqs []PlacementRequest) ([]PlacementResult, error)
}
