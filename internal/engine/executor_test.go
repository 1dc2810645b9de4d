package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

func candidate(localID string, marketID int64, target, threshold string) RepositionCandidate {
	rec := buyOrder(localID, marketID, target, threshold)
	return RepositionCandidate{
		Order:        rec,
		MarketPrice:  decimal.RequireFromString("0.500"),
		PlannedPrice: decimal.RequireFromString("0.495"),
		Drift:        decimal.RequireFromString("0.5"),
	}
}

func TestExecuteAbortsPlacementOnUnaccountedCancel(t *testing.T) {
	api := new(MockAPI)
	st := new(MockStore)
	// Two requested, only one accounted for: nothing may be placed and no
	// local status may change.
	api.On("CancelOrders", mock.Anything, []string{"ex-a", "ex-b"}).
		Return(exchange.CancelResult{Removed: []string{"ex-a"}}, nil).Once()

	recorder := &notifyRecorder{}
	exec := NewExecutor(st, recorder.fn())
	stats := exec.Execute(context.Background(), api, Plan{Candidates: []RepositionCandidate{
		candidate("a", 42, "0.490", "0.5"),
		candidate("b", 42, "0.490", "0.5"),
	}})

	assert.Equal(t, 2, stats.CancelFailed)
	assert.Equal(t, 0, stats.Repositioned)
	api.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "GetOrderBook", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, recorder.all(), 2)
	assert.Contains(t, recorder.all()[0], "cancellation unconfirmed")
	api.AssertExpectations(t)
}

func TestExecuteHardCancelErrorLeavesOrdersAlone(t *testing.T) {
	api := new(MockAPI)
	st := new(MockStore)
	api.On("CancelOrders", mock.Anything, []string{"ex-a"}).
		Return(exchange.CancelResult{}, fmt.Errorf("timeout")).Once()

	exec := NewExecutor(st, nil)
	stats := exec.Execute(context.Background(), api, Plan{Candidates: []RepositionCandidate{
		candidate("a", 42, "0.490", "0.5"),
	}})

	assert.Equal(t, 1, stats.CancelFailed)
	api.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutePlacesWithFreshPrices(t *testing.T) {
	api := new(MockAPI)
	st := new(MockStore)
	// Cancel clears via a removed/noop mix; the book has moved since
	// planning (0.500 -> 0.510) and the placement must use the new price.
	api.On("CancelOrders", mock.Anything, []string{"ex-a", "ex-b"}).
		Return(exchange.CancelResult{Removed: []string{"ex-a"}, Noop: []string{"ex-b"}}, nil).Once()
	api.On("GetOrderBook", mock.Anything, int64(42)).Return(book("0.510", "0.530"), nil).Once()
	api.On("PlaceOrders", mock.Anything, mock.MatchedBy(func(reqs []exchange.PlacementRequest) bool {
		if len(reqs) != 2 {
			return false
		}
		fresh := decimal.RequireFromString("0.505")
		return reqs[0].Price.Equal(fresh) && reqs[1].Price.Equal(fresh)
	})).Return([]exchange.PlacementResult{
		{Success: true, Hash: "0xnew-a", ExchangeID: "301"},
		{Success: true, Hash: "0xnew-b", ExchangeID: "302"},
	}, nil).Once()
	st.On("ApplyReposition", mock.Anything, "a", mock.MatchedBy(func(u store.RepositionUpdate) bool {
		return u.NewOrderHash == "0xnew-a" && u.NewTargetPrice.Equal(decimal.RequireFromString("0.505"))
	})).Return(nil).Once()
	st.On("ApplyReposition", mock.Anything, "b", mock.Anything).Return(nil).Once()

	recorder := &notifyRecorder{}
	exec := NewExecutor(st, recorder.fn())
	stats := exec.Execute(context.Background(), api, Plan{Candidates: []RepositionCandidate{
		candidate("a", 42, "0.490", "0.5"),
		candidate("b", 42, "0.490", "0.5"),
	}})

	assert.Equal(t, 2, stats.Repositioned)
	assert.Equal(t, 1, stats.NoopCancels)
	assert.Equal(t, 0, stats.PlacementFailed)
	require.Len(t, recorder.all(), 2)
	assert.Contains(t, recorder.all()[0], "Order repositioned")
	api.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestExecutePlacementFailureIsIsolated(t *testing.T) {
	api := new(MockAPI)
	st := new(MockStore)
	api.On("CancelOrders", mock.Anything, mock.Anything).
		Return(exchange.CancelResult{Removed: []string{"ex-a", "ex-b"}}, nil).Once()
	api.On("GetOrderBook", mock.Anything, int64(42)).Return(book("0.510", "0.530"), nil).Once()
	api.On("PlaceOrders", mock.Anything, mock.Anything).Return([]exchange.PlacementResult{
		{Success: true, Hash: "0xnew-a", ExchangeID: "301"},
		{Success: false, Err: "insufficient balance"},
	}, nil).Once()
	st.On("ApplyReposition", mock.Anything, "a", mock.Anything).Return(nil).Once()
	st.On("UpdateOrderStatus", mock.Anything, "b", types.OrderStatusCancelled, []byte(nil)).Return(nil).Once()

	recorder := &notifyRecorder{}
	exec := NewExecutor(st, recorder.fn())
	stats := exec.Execute(context.Background(), api, Plan{Candidates: []RepositionCandidate{
		candidate("a", 42, "0.490", "0.5"),
		candidate("b", 42, "0.490", "0.5"),
	}})

	assert.Equal(t, 1, stats.Repositioned)
	assert.Equal(t, 1, stats.PlacementFailed)
	api.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestExecuteMissingFreshPriceMarksOrderCancelled(t *testing.T) {
	api := new(MockAPI)
	st := new(MockStore)
	api.On("CancelOrders", mock.Anything, []string{"ex-a"}).
		Return(exchange.CancelResult{Removed: []string{"ex-a"}}, nil).Once()
	api.On("GetOrderBook", mock.Anything, int64(42)).Return(types.OrderBook{}, fmt.Errorf("book down")).Once()
	st.On("UpdateOrderStatus", mock.Anything, "a", types.OrderStatusCancelled, []byte(nil)).Return(nil).Once()

	recorder := &notifyRecorder{}
	exec := NewExecutor(st, recorder.fn())
	stats := exec.Execute(context.Background(), api, Plan{Candidates: []RepositionCandidate{
		candidate("a", 42, "0.490", "0.5"),
	}})

	assert.Equal(t, 1, stats.PlacementFailed)
	api.AssertNotCalled(t, "PlaceOrders", mock.Anything, mock.Anything)
	require.Len(t, recorder.all(), 1)
	assert.Contains(t, recorder.all()[0], "order not replaced")
	st.AssertExpectations(t)
}
