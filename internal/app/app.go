// Package app wires configuration, storage, the exchange gateway and the sync
// engine into one runnable process.
package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"predictbot/internal/config"
	"predictbot/internal/engine"
	"predictbot/internal/logger"
	"predictbot/internal/pkg/circuit"
	"predictbot/internal/scheduler"
	"predictbot/internal/store"
	adminhttp "predictbot/internal/transport/http/admin"
)

// App owns every long-lived component of the process.
type App struct {
	cfg     *config.Config
	store   store.Store
	orch    *engine.Orchestrator
	admin   *adminhttp.Server
	breaker *circuit.Breaker

	// Config reload listeners run on their own goroutine, so the scheduler
	// handle set by Run is read under schedMu.
	schedMu sync.Mutex
	sched   *scheduler.IntervalScheduler
}

func (a *App) setScheduler(s *scheduler.IntervalScheduler) {
	a.schedMu.Lock()
	a.sched = s
	a.schedMu.Unlock()
}

func (a *App) scheduler() *scheduler.IntervalScheduler {
	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	return a.sched
}

// New builds the application from config (nothing is started yet).
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return NewBuilder(cfg).Build(context.Background())
}

// Run starts the sync loop and the admin HTTP server and blocks until the
// context is cancelled. The in-flight sync cycle always finishes before Run
// returns.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer func() {
		if err := a.store.Close(); err != nil {
			logger.Warnf("closing store: %v", err)
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	sched := scheduler.NewIntervalScheduler(ctx, "order-sync", a.cfg.Sync.Interval(), a.cfg.Sync.InitialDelay())
	a.setScheduler(sched)

	if a.admin != nil {
		group.Go(func() error {
			if err := a.admin.Start(ctx); err != nil {
				return fmt.Errorf("admin http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		sched.Start(func() {
			if err := a.orch.RunCycle(ctx); err != nil {
				logger.Errorf("sync: cycle failed: %v", err)
			}
		})
		return nil
	})

	return group.Wait()
}

// ApplyConfig picks up the reloadable settings from a fresh config snapshot.
// Only the log level and the sync interval change at runtime; everything else
// requires a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a == nil || cfg == nil {
		return
	}
	logger.SetLevel(cfg.App.LogLevel)
	if sched := a.scheduler(); sched != nil {
		sched.SetInterval(cfg.Sync.Interval())
	}
}

// Orchestrator exposes the sync engine (for tests and replay harnesses).
func (a *App) Orchestrator() *engine.Orchestrator {
	if a == nil {
		return nil
	}
	return a.orch
}
