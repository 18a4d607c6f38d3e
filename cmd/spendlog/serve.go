package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spendlog/internal/cache"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	"spendlog/internal/kv"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	logger := a.logger.Logger

	res, err := a.openBackend(context.Background())
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close backend", applog.FieldError, err)
		}
	}()

	accessor := services.NewAccessor(res.Store)
	journal := services.NewJournalService(accessor)

	snapshot := services.NewSnapshot(accessor)
	snapshot.Refresh(context.Background())
	stopWatch := snapshot.Watch(res.Store)
	defer stopWatch()

	views := cache.NewLRUCache[services.DashboardView](a.cfg.CacheSize, a.cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(views)

	dashboard := services.NewDashboardService(context.Background(), snapshot, views)

	srv := apphttp.NewServer(journal, dashboard, apphttp.Options{
		Addr:           ":" + a.cfg.Port,
		RateLimit:      a.cfg.RateLimit,
		RequestTimeout: a.cfg.RequestTimeout,
		Ready: func(ctx context.Context) error {
			_, _, err := res.Store.Get(ctx, kv.CategoriesKey)
			return err
		},
		CacheStats: views.Stats,
	})

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	caches.StartCleanup(cleanupInterval(a.cfg.CacheTTL))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendlog server",
			"port", a.cfg.Port,
			"backend", a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer caches.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", a.cfg.Port)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// cleanupInterval sweeps expired views at the TTL, but no more often than
// once every ten seconds.
func cleanupInterval(ttl time.Duration) time.Duration {
	return max(ttl, 10*time.Second)
}
