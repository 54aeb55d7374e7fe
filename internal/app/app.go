package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/gearledger/internal/adapter/memory"
	"github.com/heartmarshall/gearledger/internal/adapter/postgres"
	"github.com/heartmarshall/gearledger/internal/adapter/postgres/event"
	"github.com/heartmarshall/gearledger/internal/config"
	"github.com/heartmarshall/gearledger/internal/domain"
	"github.com/heartmarshall/gearledger/internal/metrics"
	"github.com/heartmarshall/gearledger/internal/service/ledger"
	"github.com/heartmarshall/gearledger/internal/transport/rest"
)

type eventStore interface {
	Append(ctx context.Context, e domain.NewEvent) (*domain.Event, error)
	Latest(ctx context.Context, itemID int64) (*domain.Event, error)
	All(ctx context.Context, itemID int64) ([]domain.Event, error)
	Find(ctx context.Context, eventID int64) (*domain.Event, error)
	LockItem(ctx context.Context, itemID int64) error
}

type unitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ledgerObserver interface {
	Recorded(kind domain.EventKind, elapsed time.Duration)
	Rejected(kind domain.EventKind, reason domain.RejectionKind)
	StorageFailed(op string)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Components are the wired ledger parts shared by the server and the CLI.
type Components struct {
	Ledger *ledger.Service
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Ledger

	store   pinger
	closers []func()
}

// Build connects the configured store and wires the ledger service on top
// of it. The caller must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	mode, err := ledger.ParseMode(cfg.Ledger.Mode)
	if err != nil {
		return nil, err
	}

	c := &Components{}
	var obs ledgerObserver = metrics.Nop{}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.NewLedger()
		obs = c.Metrics
	}

	var (
		events eventStore
		tx     unitOfWork
	)
	switch cfg.Ledger.Store {
	case "memory":
		store := memory.New()
		for id := int64(1); id <= int64(cfg.Ledger.MemoryItems); id++ {
			store.EnsureItem(id)
		}
		events, tx, c.store = store, store, store

	case "postgres", "":
		iso, err := postgres.ParseIsoLevel(cfg.Ledger.Isolation)
		if err != nil {
			return nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pool.Close)
		events, tx, c.store = event.New(pool), postgres.NewTxManager(pool, iso), pool

	default:
		return nil, fmt.Errorf("unknown ledger store %q", cfg.Ledger.Store)
	}

	c.Ledger = ledger.NewService(logger, events, tx, obs, mode)

	logger.Info("ledger ready",
		slog.String("store", cfg.Ledger.Store),
		slog.String("mode", mode.String()),
		slog.String("isolation", cfg.Ledger.Isolation),
	)
	return c, nil
}

// Close releases the store connections.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Handler returns the HTTP API over the components.
func (c *Components) Handler(cfg *config.Config, logger *slog.Logger) http.Handler {
	deps := rest.RouterDeps{
		Events: rest.NewEventHandler(c.Ledger, logger, cfg.Ledger.DefaultTimestampNow),
		Health: rest.NewHealthHandler(c.store, BuildVersion()),
		Logger: logger,
	}
	if c.Metrics != nil {
		deps.Metrics = c.Metrics.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	return rest.NewRouter(deps)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening",
			slog.String("addr", srv.Addr),
			slog.String("version", BuildVersion()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
