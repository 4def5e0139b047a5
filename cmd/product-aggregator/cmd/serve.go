package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/donaldgifford/product-aggregator/api/openapi"
	"github.com/donaldgifford/product-aggregator/internal/api/handlers"
	mw "github.com/donaldgifford/product-aggregator/internal/api/middleware"
	"github.com/donaldgifford/product-aggregator/internal/engine"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and rate warm-up scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, appOptions{withTelemetry: true})
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	if a.pg != nil {
		if err := a.pg.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	sched, err := engine.NewScheduler(a.converter, a.store, cfg.Exchange.WarmInterval, cfg.Database.Retention, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if cfg.Ebay.QuotaSyncInterval > 0 {
		if err := sched.ScheduleQuotaSync(a.quota, cfg.Ebay.QuotaSyncInterval); err != nil {
			return err
		}
	}
	if cfg.Exchange.WarmInterval > 0 {
		// Warm once up front so the first search does not wait on the rate
		// source.
		go sched.RunWarmup()
	}
	if len(sched.Entries()) > 0 {
		sched.Start()
		defer sched.Stop()
	}

	e := newServer(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(e, "product-aggregator"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware, operational
// endpoints and the Huma API routes.
func newServer(a *app) *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(mw.Recovery(a.log))
	e.Use(mw.RequestLog(a.log))
	e.Use(mw.Metrics())
	e.Use(mw.Session(cfg.Server.SessionCookie))
	e.Use(mw.SearchRateLimit(cfg.Server.SearchRatePerMinute))

	deps := map[string]handlers.Pinger{}
	if a.store != nil {
		deps["database"] = a.store
	}
	if p, ok := a.cache.(handlers.Pinger); ok {
		deps["redis"] = p
	}
	health := handlers.NewHealthHandler(deps)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	openapi.RegisterRoutes(e)
	registerAPI(e, a)

	return e
}

// registerAPI mounts the Huma operations on e and returns the API.
func registerAPI(e *echo.Echo, a *app) huma.API {
	api := humaecho.New(e, huma.DefaultConfig("product-aggregator API", Version))

	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(a.engine))
	handlers.RegisterExportRoutes(api, handlers.NewExportHandler(a.engine))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(
		a.limiter,
		handlers.WithQuotaSyncer(a.quota),
		handlers.WithQuotaLogger(a.log),
	))
	handlers.RegisterRatesRoutes(api, handlers.NewRatesHandler(a.converter, a.store))

	return api
}
