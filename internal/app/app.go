// Package app wires configuration, storage, the tracker service and the HTTP
// server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-tracker/internal/catalog"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/handler"
	"github.com/xenking/promo-tracker/internal/pipeline"
	"github.com/xenking/promo-tracker/internal/repository"
	"github.com/xenking/promo-tracker/internal/tracker"
	"github.com/xenking/promo-tracker/pkg/health"
	"github.com/xenking/promo-tracker/pkg/httpmiddleware"
)

const serviceName = "promo-api"

// Run creates all dependencies, serves HTTP until ctx is cancelled and then
// shuts down gracefully.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Strings("catalog", cfg.CatalogFiles),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)

	cat, err := catalog.LoadFiles(ctx, cfg.CatalogFiles...)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.Int("promotions", cat.Len()))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", health.GCMaxPauseCheck(time.Second))
	healthSvc.AddReadinessCheck("catalog", func(context.Context) error {
		if cat.Len() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	})

	var purchases purchase.Repository
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := repository.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", health.PingCheck(pool), health.WithTimeout(5*time.Second))
		purchases = repository.NewPurchaseRepository(pool)
	} else {
		lg.Warn("No database configured, purchases are kept in memory")
		purchases = repository.NewMemoryPurchaseRepository()
	}

	svc := tracker.NewService(cat, purchases,
		tracker.WithClock(cfg.clock()),
		tracker.WithCache(pipeline.NewCache(pipeline.Default(), cfg.CacheSize)),
		tracker.WithTracerProvider(m.TracerProvider()),
		tracker.WithMeterProvider(m.MeterProvider()),
	)
	if cfg.Today != "" {
		lg.Info("Using fixed reference date", zap.Stringer("today", svc.Today()))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	handler.New(svc).Register(mux)

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:     cfg.RateLimit.Max,
		Window:  cfg.RateLimit.Window,
		Methods: []string{http.MethodPost, http.MethodPut, http.MethodDelete},
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Instrument(serviceName, m),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.RequestID(),
			httpmiddleware.LogRequests(),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.RunSweeper(gCtx)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
