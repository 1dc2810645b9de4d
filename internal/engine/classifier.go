package engine

import (
	"context"
	"errors"
	"strings"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/logger"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

// Class is the tri-state outcome of a status probe.
type Class int

const (
	// ClassOpen: the order is resting; repositioning logic applies.
	ClassOpen Class = iota
	// ClassTerminal: the order left the book; update locally and stop.
	ClassTerminal
	// ClassUnknown: the probe failed or returned an unrecognized status.
	// The order is treated as still open so a transient fault never stalls
	// price maintenance.
	ClassUnknown
)

// Classification carries the probe result. State is nil when the probe failed.
type Classification struct {
	Class  Class
	Status types.OrderStatus
	State  *exchange.OrderState
}

// ClassifyOrder queries the exchange for one order's current state and maps
// it onto the engine's taxonomy. It never returns an error: every failure
// mode degrades to ClassUnknown or ClassTerminal.
func ClassifyOrder(ctx context.Context, api exchange.API, rec store.OrderRecord) Classification {
	if strings.TrimSpace(rec.OrderHash) == "" {
		logger.Warnf("sync: order %s has no exchange hash, skipping status check", rec.LocalID)
		return Classification{Class: ClassUnknown, Status: rec.Status}
	}
	state, err := api.GetOrder(ctx, rec.OrderHash)
	if err != nil {
		if errors.Is(err, exchange.ErrOrderNotFound) {
			// The exchange has no record of the order. Treat as cancelled
			// rather than replacing it: placing a sibling for an order we
			// cannot account for would double the exposure.
			logger.Infof("sync: order %s hash=%s not found on exchange, marking cancelled", rec.LocalID, rec.OrderHash)
			return Classification{Class: ClassTerminal, Status: types.OrderStatusCancelled}
		}
		logger.Warnf("sync: status check failed order=%s err=%v, continuing as open", rec.LocalID, err)
		return Classification{Class: ClassUnknown, Status: rec.Status, State: nil}
	}
	switch {
	case state.Status == types.OrderStatusOpen:
		return Classification{Class: ClassOpen, Status: state.Status, State: state}
	case state.Status.Terminal():
		return Classification{Class: ClassTerminal, Status: state.Status, State: state}
	default:
		logger.Warnf("sync: order %s reported unrecognized status %q, continuing as open", rec.LocalID, state.Status)
		return Classification{Class: ClassUnknown, Status: state.Status, State: state}
	}
}
