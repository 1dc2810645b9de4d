package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/gateway/notifier"
	"predictbot/internal/logger"
	"predictbot/internal/pricing"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

// NotifyFunc delivers one best-effort message to a user.
type NotifyFunc func(userID int64, text string)

// RepositionCandidate is one order the planner decided to cancel-and-replace.
// PlannedPrice is advisory: the executor recomputes it from a fresh book
// before placing anything.
type RepositionCandidate struct {
	Order        store.OrderRecord
	MarketPrice  decimal.Decimal
	PlannedPrice decimal.Decimal
	Drift        decimal.Decimal
}

// Plan is the planner's output for one user's open orders.
type Plan struct {
	Candidates []RepositionCandidate
	Skipped    int
}

// bookSource fetches orderbooks at most once per market, caching failures too
// so one dead market costs a single request per pass.
type bookSource struct {
	api   exchange.API
	books map[int64]types.OrderBook
	fails map[int64]bool
}

func newBookSource(api exchange.API) *bookSource {
	return &bookSource{
		api:   api,
		books: make(map[int64]types.OrderBook),
		fails: make(map[int64]bool),
	}
}

// price returns the current market price for an order's leg, or ok=false when
// the book is unavailable or the relevant side is empty.
func (s *bookSource) price(ctx context.Context, rec store.OrderRecord) (decimal.Decimal, bool) {
	if s.fails[rec.MarketID] {
		return decimal.Zero, false
	}
	book, ok := s.books[rec.MarketID]
	if !ok {
		fetched, err := s.api.GetOrderBook(ctx, rec.MarketID)
		if err != nil {
			logger.Warnf("sync: orderbook fetch failed market=%d err=%v", rec.MarketID, err)
			s.fails[rec.MarketID] = true
			return decimal.Zero, false
		}
		s.books[rec.MarketID] = fetched
		book = fetched
	}
	return pricing.OutcomePrice(book, rec.Side, rec.Outcome)
}

// BuildPlan walks one user's live orders and picks those whose recomputed
// target has drifted at least the order's threshold (in cents) away from the
// quoted price. Advisory notifications go out before execution.
func BuildPlan(ctx context.Context, api exchange.API, orders []store.OrderRecord, notify NotifyFunc) Plan {
	plan := Plan{}
	src := newBookSource(api)
	for _, rec := range orders {
		market, ok := src.price(ctx, rec)
		if !ok {
			logger.Infof("sync: no market price for order %s market=%d, skipping this cycle", rec.LocalID, rec.MarketID)
			plan.Skipped++
			continue
		}
		planned := pricing.TargetPrice(market, rec.Side, rec.OffsetTicks)
		drift := pricing.DriftCents(planned, rec.TargetPrice)
		if drift.LessThan(rec.ThresholdCents) {
			continue
		}
		plan.Candidates = append(plan.Candidates, RepositionCandidate{
			Order:        rec,
			MarketPrice:  market,
			PlannedPrice: planned,
			Drift:        drift,
		})
		logger.Infof("sync: reposition planned order=%s market=%d drift=%s cents (quoted=%s planned=%s)",
			rec.LocalID, rec.MarketID, drift.String(), rec.TargetPrice.String(), planned.String())
		if notify != nil {
			notify(rec.UserID, notifier.RenderPriceChanged(rec, market, planned))
		}
	}
	return plan
}
