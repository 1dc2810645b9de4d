package engine

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetOrder(ctx context.Context, hash string) (*exchange.OrderState, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.OrderState), args.Error(1)
}

func (m *MockAPI) GetOrderBook(ctx context.Context, marketID int64) (types.OrderBook, error) {
	args := m.Called(ctx, marketID)
	return args.Get(0).(types.OrderBook), args.Error(1)
}

func (m *MockAPI) CancelOrders(ctx context.Context, ids []string) (exchange.CancelResult, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(exchange.CancelResult), args.Error(1)
}

func (m *MockAPI) PlaceOrders(ctx context.Context, reqs []exchange.PlacementRequest) ([]exchange.PlacementResult, error) {
	args := m.Called(ctx, reqs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]exchange.PlacementResult), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertUser(ctx context.Context, rec store.UserRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, telegramID int64) (store.UserRecord, error) {
	args := m.Called(ctx, telegramID)
	return args.Get(0).(store.UserRecord), args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]store.UserRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.UserRecord), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, telegramID int64) error {
	return m.Called(ctx, telegramID).Error(0)
}

func (m *MockStore) InsertOrder(ctx context.Context, rec store.OrderRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStore) GetOrder(ctx context.Context, localID string) (store.OrderRecord, error) {
	args := m.Called(ctx, localID)
	return args.Get(0).(store.OrderRecord), args.Error(1)
}

func (m *MockStore) GetOrderByHash(ctx context.Context, userID int64, hash string) (store.OrderRecord, error) {
	args := m.Called(ctx, userID, hash)
	return args.Get(0).(store.OrderRecord), args.Error(1)
}

func (m *MockStore) ListOpenOrders(ctx context.Context, userID int64) ([]store.OrderRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.OrderRecord), args.Error(1)
}

func (m *MockStore) ListOrders(ctx context.Context, userID int64, limit int) ([]store.OrderRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.OrderRecord), args.Error(1)
}

func (m *MockStore) UpdateOrderStatus(ctx context.Context, localID string, status types.OrderStatus, fillPayload []byte) error {
	return m.Called(ctx, localID, status, fillPayload).Error(0)
}

func (m *MockStore) ApplyReposition(ctx context.Context, localID string, update store.RepositionUpdate) error {
	return m.Called(ctx, localID, update).Error(0)
}

func (m *MockStore) DeleteOrder(ctx context.Context, localID string) error {
	return m.Called(ctx, localID).Error(0)
}

func (m *MockStore) Close() error {
	return nil
}

// notifyRecorder captures best-effort pushes for assertions.
type notifyRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *notifyRecorder) fn() NotifyFunc {
	return func(userID int64, text string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.msgs = append(r.msgs, text)
	}
}

func (r *notifyRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func book(bestBid, bestAsk string) types.OrderBook {
	var b types.OrderBook
	if bestBid != "" {
		b.Bids = []types.PriceLevel{
			{Price: decimal.RequireFromString(bestBid), Size: decimal.NewFromInt(100)},
			{Price: decimal.RequireFromString(bestBid).Sub(decimal.New(1, -2)), Size: decimal.NewFromInt(50)},
		}
	}
	if bestAsk != "" {
		b.Asks = []types.PriceLevel{
			{Price: decimal.RequireFromString(bestAsk), Size: decimal.NewFromInt(100)},
		}
	}
	return b
}

func buyOrder(localID string, marketID int64, target, threshold string) store.OrderRecord {
	return store.OrderRecord{
		LocalID:        localID,
		UserID:         1001,
		OrderHash:      "0x" + localID,
		ExchangeID:     "ex-" + localID,
		MarketID:       marketID,
		MarketTitle:    "Test market",
		TokenID:        "tok-yes",
		TokenName:      "Yes",
		Side:           types.SideBuy,
		Outcome:        types.OutcomeYes,
		CurrentPrice:   decimal.RequireFromString(target),
		TargetPrice:    decimal.RequireFromString(target),
		OffsetTicks:    5,
		Amount:         decimal.NewFromInt(10),
		ThresholdCents: decimal.RequireFromString(threshold),
		Status:         types.OrderStatusOpen,
	}
}
