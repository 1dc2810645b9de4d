package engine

import (
	"context"
	"fmt"
	"time"

	"predictbot/internal/gateway/exchange"
	"predictbot/internal/gateway/notifier"
	"predictbot/internal/logger"
	"predictbot/internal/store"
	"predictbot/internal/types"
)

// ClientResolver yields an authenticated exchange client for one user.
type ClientResolver interface {
	Resolve(ctx context.Context, user store.UserRecord) (exchange.API, error)
}

// ClientResolverFunc adapts a function to ClientResolver.
type ClientResolverFunc func(ctx context.Context, user store.UserRecord) (exchange.API, error)

func (f ClientResolverFunc) Resolve(ctx context.Context, user store.UserRecord) (exchange.API, error) {
	return f(ctx, user)
}

// Breaker is the subset of the circuit breaker the orchestrator needs.
type Breaker interface {
	Allow() bool
	RecordSuccess()
	RecordFailure()
}

// Orchestrator runs the reconciliation cycle: for every registered user,
// status-check, plan and execute, strictly in that order, one user at a time.
// Users are isolated: one user's failure never stops the cycle.
type Orchestrator struct {
	store    store.Store
	resolver ClientResolver
	chat     notifier.ChatNotifier
	breaker  Breaker
	stats    statsBook
}

func NewOrchestrator(st store.Store, resolver ClientResolver, chat notifier.ChatNotifier, breaker Breaker) *Orchestrator {
	return &Orchestrator{store: st, resolver: resolver, chat: chat, breaker: breaker}
}

// Stats returns the cumulative and most recent cycle counters.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.snapshot()
}

// RunCycle performs one full pass. A non-nil error means the pass could not
// even start (user listing failed); per-user errors are absorbed and counted.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if o.breaker != nil && !o.breaker.Allow() {
		logger.Warnf("sync: circuit open, skipping cycle")
		return nil
	}
	cycle := CycleStats{StartedAt: time.Now()}

	users, err := o.store.ListUsers(ctx)
	if err != nil {
		if o.breaker != nil {
			o.breaker.RecordFailure()
		}
		return fmt.Errorf("listing users: %w", err)
	}
	logger.Infof("sync: cycle start users=%d", len(users))

	for _, user := range users {
		if ctx.Err() != nil {
			logger.Infof("sync: shutdown requested, stopping after %d of %d users", cycle.Users, len(users))
			break
		}
		started := time.Now()
		userStats, err := o.syncUser(ctx, user)
		elapsed := time.Since(started).Round(time.Millisecond)
		cycle.Users++
		cycle.add(userStats)
		if err != nil {
			cycle.UsersFailed++
			logger.Errorf("sync: user %d failed after %s err=%v", user.TelegramID, elapsed, err)
			continue
		}
		logger.Infof("sync: user %d done in %s orders=%d repositioned=%d",
			user.TelegramID, elapsed, userStats.OrdersChecked, userStats.Repositioned)
	}

	cycle.Duration = time.Since(cycle.StartedAt)
	o.stats.record(cycle)
	if o.breaker != nil {
		o.breaker.RecordSuccess()
	}
	logger.Infof("sync: cycle done in %s users=%d failed=%d checked=%d filled=%d repositioned=%d placeFailed=%d cancelFailed=%d",
		cycle.Duration.Round(time.Millisecond), cycle.Users, cycle.UsersFailed, cycle.OrdersChecked,
		cycle.Filled, cycle.Repositioned, cycle.PlacementFailed, cycle.CancelFailed)
	return nil
}

// syncUser runs status-check, planning and execution for one user.
func (o *Orchestrator) syncUser(ctx context.Context, user store.UserRecord) (CycleStats, error) {
	var out CycleStats

	api, err := o.resolver.Resolve(ctx, user)
	if err != nil {
		return out, fmt.Errorf("resolving exchange client: %w", err)
	}
	orders, err := o.store.ListOpenOrders(ctx, user.TelegramID)
	if err != nil {
		return out, fmt.Errorf("listing open orders: %w", err)
	}
	if len(orders) == 0 {
		return out, nil
	}

	live := make([]store.OrderRecord, 0, len(orders))
	for _, rec := range orders {
		out.OrdersChecked++
		c := ClassifyOrder(ctx, api, rec)
		switch c.Class {
		case ClassTerminal:
			o.applyTerminal(ctx, rec, c, &out)
		default:
			live = append(live, rec)
		}
	}

	plan := BuildPlan(ctx, api, live, o.notifyUser)
	out.PlannedSkips += plan.Skipped

	exec := NewExecutor(o.store, o.notifyUser).Execute(ctx, api, plan)
	out.Repositioned += exec.Repositioned
	out.PlacementFailed += exec.PlacementFailed
	out.CancelFailed += exec.CancelFailed
	out.NoopCancels += exec.NoopCancels
	return out, nil
}

// applyTerminal writes a terminal status locally. Only fills are announced;
// cancelled/expired/invalidated are recorded silently.
func (o *Orchestrator) applyTerminal(ctx context.Context, rec store.OrderRecord, c Classification, out *CycleStats) {
	var payload []byte
	if c.State != nil {
		payload = c.State.Raw
	}
	if err := o.store.UpdateOrderStatus(ctx, rec.LocalID, c.Status, payload); err != nil {
		logger.Errorf("sync: status write failed order=%s status=%s err=%v", rec.LocalID, c.Status, err)
		return
	}
	if c.Status == types.OrderStatusFilled {
		out.Filled++
		filled := rec
		filled.Status = c.Status
		if c.State != nil && !c.State.Price.IsZero() {
			filled.CurrentPrice = c.State.Price
		}
		o.notifyUser(rec.UserID, notifier.RenderFilled(filled))
		return
	}
	out.Terminal++
	logger.Infof("sync: order %s reached terminal status %s", rec.LocalID, c.Status)
}

// notifyUser is best-effort: delivery failures are logged and dropped.
func (o *Orchestrator) notifyUser(userID int64, text string) {
	if o.chat == nil {
		return
	}
	if err := o.chat.SendTo(userID, text); err != nil {
		logger.Warnf("sync: notification to user %d failed: %v", userID, err)
	}
}

func (c *CycleStats) add(other CycleStats) {
	c.OrdersChecked += other.OrdersChecked
	c.Filled += other.Filled
	c.Terminal += other.Terminal
	c.PlannedSkips += other.PlannedSkips
	c.Repositioned += other.Repositioned
	c.PlacementFailed += other.PlacementFailed
	c.CancelFailed += other.CancelFailed
	c.NoopCancels += other.NoopCancels
}
