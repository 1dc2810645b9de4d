package engine

import (
	"sync"
	"time"
)

// CycleStats summarizes one full pass over all users.
type CycleStats struct {
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration_ns"`
	Users           int           `json:"users"`
	UsersFailed     int           `json:"users_failed"`
	OrdersChecked   int           `json:"orders_checked"`
	Filled          int           `json:"filled"`
	Terminal        int           `json:"terminal"`
	PlannedSkips    int           `json:"planned_skips"`
	Repositioned    int           `json:"repositioned"`
	PlacementFailed int           `json:"placement_failed"`
	CancelFailed    int           `json:"cancel_failed"`
	NoopCancels     int           `json:"noop_cancels"`
}

// StatsSnapshot is the read-only view handed to the admin API.
type StatsSnapshot struct {
	Cycles int        `json:"cycles"`
	Last   CycleStats `json:"last"`
	Totals CycleStats `json:"totals"`
}

type statsBook struct {
	mu     sync.Mutex
	cycles int
	last   CycleStats
	totals CycleStats
}

func (b *statsBook) record(c CycleStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cycles++
	b.last = c
	b.totals.Users += c.Users
	b.totals.UsersFailed += c.UsersFailed
	b.totals.OrdersChecked += c.OrdersChecked
	b.totals.Filled += c.Filled
	b.totals.Terminal += c.Terminal
	b.totals.PlannedSkips += c.PlannedSkips
	b.totals.Repositioned += c.Repositioned
	b.totals.PlacementFailed += c.PlacementFailed
	b.totals.CancelFailed += c.CancelFailed
	b.totals.NoopCancels += c.NoopCancels
	b.totals.Duration += c.Duration
}

func (b *statsBook) snapshot() StatsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return StatsSnapshot{Cycles: b.cycles, Last: b.last, Totals: b.totals}
}
