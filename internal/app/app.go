// Package app wires the storefront together: catalog backend selection,
// sessions, the HTTP server with its middleware chain, health probes, and
// graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/planetfashion/storefront/db"
	"github.com/planetfashion/storefront/internal/auth"
	"github.com/planetfashion/storefront/internal/catalog"
	"github.com/planetfashion/storefront/internal/checkout"
	"github.com/planetfashion/storefront/internal/handler"
	"github.com/planetfashion/storefront/internal/session"
	"github.com/planetfashion/storefront/internal/storage/postgres"
	"github.com/planetfashion/storefront/pkg/health"
	"github.com/planetfashion/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Catalog backend: PostgreSQL when configured, embedded seed otherwise.
	var products catalog.Repository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		products = postgres.NewCatalogRepository(pool)
		lg.Info("Catalog backend: postgres")
	} else {
		repo, err := catalog.NewMemoryRepository(db.SeedCatalog)
		if err != nil {
			return errors.Wrap(err, "load embedded catalog")
		}
		products = repo
		lg.Info("Catalog backend: embedded seed")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	checkoutCfg := checkout.Config{
		ProcessingDelay: cfg.Checkout.Delay,
		TaxRate:         decimal.New(cfg.Checkout.TaxPercent, -2),
	}
	sessions := session.NewManager(cfg.Session.TTL, checkoutCfg)
	sessions.StartSweeper(ctx, cfg.Session.Sweep)

	gate := auth.NewStaticGate(cfg.Admin.Username, cfg.Admin.Password)

	h := handler.New(ctx,
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		products, sessions, gate,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	instrumented := otelhttp.NewHandler(mux, "storefront-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: drain readiness first so load balancers stop
	// routing, then stop the server.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
