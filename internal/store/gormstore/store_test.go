package gormstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictbot/internal/store"
	"predictbot/internal/types"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleOrder(userID int64, hash string) store.OrderRecord {
	return store.OrderRecord{
		UserID:       userID,
		OrderHash:    hash,
		ExchangeID:   "101",
		MarketID:     42,
		MarketTitle:  "Will it rain tomorrow?",
		MarketSlug:   "will-it-rain",
		TokenID:      "tok-yes",
		TokenName:    "Yes",
		Side:         types.SideBuy,
		Outcome:      types.OutcomeYes,
		CurrentPrice: decimal.RequireFromString("0.490"),
		TargetPrice:  decimal.RequireFromString("0.490"),
		OffsetTicks:  5,
		Amount:       decimal.NewFromInt(10),
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := store.UserRecord{
		TelegramID:    1001,
		Username:      "alice",
		WalletAddress: "0xwallet",
		APIKey:        "key",
		AuthToken:     "token",
	}
	require.NoError(t, s.UpsertUser(ctx, rec))

	got, err := s.GetUser(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "0xwallet", got.WalletAddress)

	rec.Username = "alice2"
	require.NoError(t, s.UpsertUser(ctx, rec))
	got, err = s.GetUser(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, s.DeleteUser(ctx, 1001))
	_, err = s.GetUser(ctx, 1001)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOrderDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrder(ctx, sampleOrder(1001, "0xaaa")))

	got, err := s.GetOrderByHash(ctx, 1001, "0xaaa")
	require.NoError(t, err)
	assert.NotEmpty(t, got.LocalID)
	assert.Equal(t, types.OrderStatusOpen, got.Status)
	assert.True(t, got.ThresholdCents.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("0.490")))
}

func TestListOpenOrdersFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrder(ctx, sampleOrder(1001, "0xaaa")))
	require.NoError(t, s.InsertOrder(ctx, sampleOrder(1001, "0xbbb")))
	require.NoError(t, s.InsertOrder(ctx, sampleOrder(2002, "0xccc")))

	filled, err := s.GetOrderByHash(ctx, 1001, "0xbbb")
	require.NoError(t, err)
	require.NoError(t, s.UpdateOrderStatus(ctx, filled.LocalID, types.OrderStatusFilled, []byte(`{"amountFilled":"10"}`)))

	open, err := s.ListOpenOrders(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "0xaaa", open[0].OrderHash)

	got, err := s.GetOrder(ctx, filled.LocalID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, got.Status)
	assert.JSONEq(t, `{"amountFilled":"10"}`, string(got.LastFillPayload))
}

func TestApplyReposition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrder(ctx, sampleOrder(1001, "0xold")))
	rec, err := s.GetOrderByHash(ctx, 1001, "0xold")
	require.NoError(t, err)

	err = s.ApplyReposition(ctx, rec.LocalID, store.RepositionUpdate{
		NewOrderHash:   "0xnew",
		NewExchangeID:  "202",
		NewMarketPrice: decimal.RequireFromString("0.500"),
		NewTargetPrice: decimal.RequireFromString("0.495"),
	})
	require.NoError(t, err)

	got, err := s.GetOrder(ctx, rec.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "0xnew", got.OrderHash)
	assert.Equal(t, "202", got.ExchangeID)
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("0.500")))
	assert.True(t, got.TargetPrice.Equal(decimal.RequireFromString("0.495")))
	assert.Equal(t, types.OrderStatusOpen, got.Status)

	_, err = s.GetOrderByHash(ctx, 1001, "0xold")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRepositionMissingRow(t *testing.T) {
	s := newTestStore(t)
	err := s.ApplyReposition(context.Background(), "nope", store.RepositionUpdate{
		NewOrderHash:   "0xnew",
		NewTargetPrice: decimal.RequireFromString("0.5"),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
