package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"predictbot/internal/config"
	"predictbot/internal/engine"
	"predictbot/internal/gateway/exchange"
	"predictbot/internal/gateway/notifier"
	"predictbot/internal/logger"
	"predictbot/internal/pkg/circuit"
	"predictbot/internal/store"
	"predictbot/internal/store/gormstore"
	adminhttp "predictbot/internal/transport/http/admin"
)

// Builder assembles the application graph. The *Fn hooks exist so tests can
// swap heavy dependencies for fakes.
type Builder struct {
	cfg *config.Config

	storeFn    func(path string) (store.Store, error)
	notifierFn func(tg config.TelegramConfig) notifier.ChatNotifier

	storeOverride store.Store
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:        cfg,
		storeFn:    openStore,
		notifierFn: newTelegram,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithStore injects a pre-built store instead of opening the sqlite file.
func WithStore(st store.Store) BuilderOption {
	return func(b *Builder) {
		if st != nil {
			b.storeOverride = st
		}
	}
}

// WithNotifier replaces the Telegram notifier constructor.
func WithNotifier(fn func(config.TelegramConfig) notifier.ChatNotifier) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.notifierFn = fn
		}
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	st := b.storeOverride
	if st == nil {
		var err error
		st, err = b.storeFn(cfg.Store.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening store failed: %w", err)
		}
	}

	factory := exchange.NewFactory(cfg.Exchange.APIURL, cfg.Exchange.Timeout(), cfg.Exchange.RequestsPerSecond)
	resolver := engine.ClientResolverFunc(func(ctx context.Context, user store.UserRecord) (exchange.API, error) {
		return factory.ClientFor(user.TelegramID, exchange.Credentials{
			APIKey:    user.APIKey,
			AuthToken: user.AuthToken,
		})
	})

	chat := b.notifierFn(cfg.Notify.Telegram)

	breaker := circuit.New("order-sync", cfg.Sync.BreakerThreshold, cfg.Sync.BreakerCooldown())
	orch := engine.NewOrchestrator(st, resolver, chat, breaker)

	var admin *adminhttp.Server
	if cfg.Admin.Enabled {
		srv, err := adminhttp.NewServer(adminhttp.ServerConfig{
			Addr:   cfg.Admin.HTTPAddr,
			Store:  st,
			Stats:  orch,
			Health: breakerHealth{breaker},
		})
		if err != nil {
			return nil, fmt.Errorf("building admin http server failed: %w", err)
		}
		admin = srv
	}

	return &App{
		cfg:     cfg,
		store:   st,
		orch:    orch,
		admin:   admin,
		breaker: breaker,
	}, nil
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store.db_path not configured")
	}
	return gormstore.NewGormStore(path)
}

func newTelegram(tg config.TelegramConfig) notifier.ChatNotifier {
	if !tg.Enabled || strings.TrimSpace(tg.BotToken) == "" {
		return nil
	}
	defaultChat := ""
	if tg.DefaultChatID != 0 {
		defaultChat = strconv.FormatInt(tg.DefaultChatID, 10)
	}
	return notifier.NewTelegram(tg.BotToken, defaultChat)
}

// breakerHealth reports the circuit state on /healthz.
type breakerHealth struct {
	b *circuit.Breaker
}

func (h breakerHealth) HealthState() string {
	if h.b == nil {
		return "UNKNOWN"
	}
	return h.b.CurrentState().String()
}
