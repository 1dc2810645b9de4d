package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/types"
)

func TestClassifyOpenOrder(t *testing.T) {
	api := new(MockAPI)
	api.On("GetOrder", mock.Anything, "0xa").
		Return(&exchange.OrderState{Hash: "0xa", Status: types.OrderStatusOpen}, nil).Once()

	rec := buyOrder("a", 42, "0.490", "0.5")
	rec.OrderHash = "0xa"
	c := ClassifyOrder(context.Background(), api, rec)

	assert.Equal(t, ClassOpen, c.Class)
	assert.Equal(t, types.OrderStatusOpen, c.Status)
}

func TestClassifyTerminalStatuses(t *testing.T) {
	for _, status := range []types.OrderStatus{
		types.OrderStatusFilled,
		types.OrderStatusCancelled,
		types.OrderStatusExpired,
		types.OrderStatusInvalidated,
	} {
		t.Run(string(status), func(t *testing.T) {
			api := new(MockAPI)
			api.On("GetOrder", mock.Anything, mock.Anything).
				Return(&exchange.OrderState{Status: status}, nil).Once()

			c := ClassifyOrder(context.Background(), api, buyOrder("a", 42, "0.490", "0.5"))
			assert.Equal(t, ClassTerminal, c.Class)
			assert.Equal(t, status, c.Status)
		})
	}
}

func TestClassifyTransientFailureContinuesAsOpen(t *testing.T) {
	api := new(MockAPI)
	api.On("GetOrder", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("dial tcp: timeout")).Once()

	rec := buyOrder("a", 42, "0.490", "0.5")
	c := ClassifyOrder(context.Background(), api, rec)

	assert.Equal(t, ClassUnknown, c.Class)
	assert.Equal(t, rec.Status, c.Status)
}

func TestClassifyNotFoundIsTerminalCancelled(t *testing.T) {
	api := new(MockAPI)
	api.On("GetOrder", mock.Anything, mock.Anything).
		Return(nil, exchange.ErrOrderNotFound).Once()

	c := ClassifyOrder(context.Background(), api, buyOrder("a", 42, "0.490", "0.5"))

	assert.Equal(t, ClassTerminal, c.Class)
	assert.Equal(t, types.OrderStatusCancelled, c.Status)
}

func TestClassifyUnrecognizedStatusContinues(t *testing.T) {
	api := new(MockAPI)
	api.On("GetOrder", mock.Anything, mock.Anything).
		Return(&exchange.OrderState{Status: types.OrderStatus("HALTED")}, nil).Once()

	c := ClassifyOrder(context.Background(), api, buyOrder("a", 42, "0.490", "0.5"))

	assert.Equal(t, ClassUnknown, c.Class)
}

func TestClassifyMissingHashSkipsProbe(t *testing.T) {
	api := new(MockAPI)

	rec := buyOrder("a", 42, "0.490", "0.5")
	rec.OrderHash = ""
	c := ClassifyOrder(context.Background(), api, rec)

	assert.Equal(t, ClassUnknown, c.Class)
	api.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}
