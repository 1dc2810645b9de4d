package engine

import (
	"context"
	"fmt"
	"strings"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/gateway/notifier"
	"predictbot/internal/logger"
	"predictbot/internal/pricing"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

// The exchange caps one removal request at 100 ids.
const maxCancelBatch = 100

// ExecutionStats counts per-order outcomes of one executor pass.
type ExecutionStats struct {
	Repositioned    int
	PlacementFailed int
	CancelFailed    int
	NoopCancels     int
}

// Executor carries out a plan: cancel batch, gate, fresh reprice, place,
// write back. Each order's outcome is independent.
type Executor struct {
	orders store.OrderStore
	notify NotifyFunc
}

func NewExecutor(orders store.OrderStore, notify NotifyFunc) *Executor {
	return &Executor{orders: orders, notify: notify}
}

// Execute runs the cancel/place sequence for one user's plan. Cancellation is
// always confirmed before any placement: a batch whose removal cannot be fully
// accounted for is left alone for the next cycle.
func (e *Executor) Execute(ctx context.Context, api exchange.API, plan Plan) ExecutionStats {
	var stats ExecutionStats
	for start := 0; start < len(plan.Candidates); start += maxCancelBatch {
		end := start + maxCancelBatch
		if end > len(plan.Candidates) {
			end = len(plan.Candidates)
		}
		e.executeBatch(ctx, api, plan.Candidates[start:end], &stats)
	}
	return stats
}

func (e *Executor) executeBatch(ctx context.Context, api exchange.API, batch []RepositionCandidate, stats *ExecutionStats) {
	ids := make([]string, 0, len(batch))
	for _, cand := range batch {
		ids = append(ids, cancelID(cand.Order))
	}

	result, err := api.CancelOrders(ctx, ids)
	if err != nil {
		logger.Errorf("sync: cancel batch failed (%d orders) err=%v", len(batch), err)
		e.reportCancelFailure(batch, err.Error(), stats)
		return
	}
	if !result.Cleared(ids) {
		missing := len(ids) - len(result.Removed) - len(result.Noop)
		logger.Errorf("sync: cancel batch unaccounted: requested=%d removed=%d noop=%d missing=%d, placement aborted",
			len(ids), len(result.Removed), len(result.Noop), missing)
		e.reportCancelFailure(batch, fmt.Sprintf("%d of %d cancellations unaccounted for", missing, len(ids)), stats)
		return
	}
	if len(result.Noop) > 0 {
		stats.NoopCancels += len(result.Noop)
		logger.Warnf("sync: %d orders were already off the book when cancelled: %s",
			len(result.Noop), strings.Join(result.Noop, ","))
	}

	// Every price is re-derived from a book fetched after the cancellations,
	// never from the planner's pass.
	fresh := newBookSource(api)
	placeable := make([]RepositionCandidate, 0, len(batch))
	reqs := make([]exchange.PlacementRequest, 0, len(batch))
	for _, cand := range batch {
		market, ok := fresh.price(ctx, cand.Order)
		if !ok {
			e.placementFailed(ctx, cand, "market price unavailable after cancellation", stats)
			continue
		}
		cand.MarketPrice = market
		cand.PlannedPrice = pricing.TargetPrice(market, cand.Order.Side, cand.Order.OffsetTicks)
		placeable = append(placeable, cand)
		reqs = append(reqs, exchange.PlacementRequest{
			MarketID: cand.Order.MarketID,
			TokenID:  cand.Order.TokenID,
			Side:     cand.Order.Side,
			Price:    cand.PlannedPrice,
			Amount:   cand.Order.Amount,
		})
	}
	if len(reqs) == 0 {
		return
	}

	results, err := api.PlaceOrders(ctx, reqs)
	if err != nil {
		logger.Errorf("sync: placement batch failed (%d orders) err=%v", len(reqs), err)
		for _, cand := range placeable {
			e.placementFailed(ctx, cand, err.Error(), stats)
		}
		return
	}
	for i, cand := range placeable {
		if i >= len(results) {
			e.placementFailed(ctx, cand, "no placement result returned", stats)
			continue
		}
		e.applyPlacement(ctx, cand, results[i], stats)
	}
}

func (e *Executor) applyPlacement(ctx context.Context, cand RepositionCandidate, res exchange.PlacementResult, stats *ExecutionStats) {
	rec := cand.Order
	if !res.Success {
		e.placementFailed(ctx, cand, res.Err, stats)
		return
	}
	update := store.RepositionUpdate{
		NewOrderHash:   res.Hash,
		NewExchangeID:  res.ExchangeID,
		NewMarketPrice: cand.MarketPrice,
		NewTargetPrice: cand.PlannedPrice,
	}
	if err := e.orders.ApplyReposition(ctx, rec.LocalID, update); err != nil {
		logger.Errorf("sync: reposition write failed order=%s newHash=%s err=%v", rec.LocalID, res.Hash, err)
		return
	}
	stats.Repositioned++
	logger.Infof("sync: order %s repositioned %s -> %s (hash=%s)",
		rec.LocalID, rec.TargetPrice.String(), cand.PlannedPrice.String(), res.Hash)
	if e.notify != nil {
		e.notify(rec.UserID, notifier.RenderRepositioned(rec, rec.TargetPrice, cand.PlannedPrice))
	}
}

// placementFailed records that the order was cancelled but never replaced.
// The row is marked CANCELLED so the engine stops treating it as resting.
func (e *Executor) placementFailed(ctx context.Context, cand RepositionCandidate, reason string, stats *ExecutionStats) {
	rec := cand.Order
	stats.PlacementFailed++
	logger.Errorf("sync: placement failed order=%s price=%s reason=%s", rec.LocalID, cand.PlannedPrice.String(), reason)
	if err := e.orders.UpdateOrderStatus(ctx, rec.LocalID, types.OrderStatusCancelled, nil); err != nil {
		logger.Errorf("sync: failed to mark order %s cancelled after placement failure: %v", rec.LocalID, err)
	}
	if e.notify != nil {
		e.notify(rec.UserID, notifier.RenderPlacementFailed(rec, cand.PlannedPrice, reason))
	}
}

func (e *Executor) reportCancelFailure(batch []RepositionCandidate, reason string, stats *ExecutionStats) {
	stats.CancelFailed += len(batch)
	for _, cand := range batch {
		if e.notify != nil {
			e.notify(cand.Order.UserID, notifier.RenderCancellationFailed(cand.Order, reason))
		}
	}
}

// cancelID picks the identifier the removal endpoint expects, preferring the
// numeric exchange id over the hash.
func cancelID(rec store.OrderRecord) string {
	if id := strings.TrimSpace(rec.ExchangeID); id != "" {
		return id
	}
	return strings.TrimSpace(rec.OrderHash)
}
