package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"predictbot/internal/types"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// UserRecord is one registered account. Credential fields hold whatever the
// exchange client needs verbatim; nothing in the store interprets them.
type UserRecord struct {
	TelegramID    int64
	Username      string
	WalletAddress string
	APIKey        string
	AuthToken     string
	Proxy         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderRecord is the bot's view of one tracked limit order. CurrentPrice is
// the price the order rests at on the exchange; TargetPrice is where the
// repositioning logic last wanted it. OffsetTicks shifts the quote away from
// the touch (down for buys, up for sells).
type OrderRecord struct {
	LocalID     string
	UserID      int64
	OrderHash   string
	ExchangeID  string
	MarketID    int64
	MarketTitle string
	MarketSlug  string
	TokenID     string
	TokenName   string
	Side        types.Side
	Outcome     types.Outcome

	CurrentPrice    decimal.Decimal
	TargetPrice     decimal.Decimal
	OffsetTicks     int
	Amount          decimal.Decimal
	ThresholdCents  decimal.Decimal
	Status          types.OrderStatus
	LastFillPayload []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RepositionUpdate is the atomic patch applied to an order after a successful
// cancel-and-replace. The old row keeps its identity (LocalID) so history and
// notifications stay attached to one logical order.
type RepositionUpdate struct {
	NewOrderHash   string
	NewExchangeID  string
	NewMarketPrice decimal.Decimal
	NewTargetPrice decimal.Decimal
}

// UserStore persists registered accounts.
type UserStore interface {
	UpsertUser(ctx context.Context, rec UserRecord) error
	GetUser(ctx context.Context, telegramID int64) (UserRecord, error)
	ListUsers(ctx context.Context) ([]UserRecord, error)
	DeleteUser(ctx context.Context, telegramID int64) error
}

// OrderStore persists tracked orders. ListOpenOrders drives the sync cycle;
// everything else maintains rows as the exchange's truth changes.
type OrderStore interface {
	InsertOrder(ctx context.Context, rec OrderRecord) error
	GetOrder(ctx context.Context, localID string) (OrderRecord, error)
	GetOrderByHash(ctx context.Context, userID int64, hash string) (OrderRecord, error)
	ListOpenOrders(ctx context.Context, userID int64) ([]OrderRecord, error)
	ListOrders(ctx context.Context, userID int64, limit int) ([]OrderRecord, error)
	UpdateOrderStatus(ctx context.Context, localID string, status types.OrderStatus, fillPayload []byte) error
	ApplyReposition(ctx context.Context, localID string, update RepositionUpdate) error
	DeleteOrder(ctx context.Context, localID string) error
}

// Store is the full persistence surface the app wires together.
type Store interface {
	UserStore
	OrderStore
	Close() error
}
