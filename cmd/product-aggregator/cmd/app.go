package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/donaldgifford/product-aggregator/internal/config"
	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/engine"
	"github.com/donaldgifford/product-aggregator/internal/exchange"
	"github.com/donaldgifford/product-aggregator/internal/resultcache"
	"github.com/donaldgifford/product-aggregator/internal/store"
	"github.com/donaldgifford/product-aggregator/internal/telemetry"
	"github.com/donaldgifford/product-aggregator/pkg/logger"
)

// app holds the wired search pipeline shared by serve and search.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	limiter   *ebay.RateLimiter
	quota     *ebay.QuotaSync
	converter *exchange.Converter
	cache     resultcache.Cache
	engine    *engine.Engine

	// Optional backends. store is a nil interface when no database is
	// configured.
	store store.Store
	pg    *store.PostgresStore
	redis *redis.Client

	shutdownTelemetry telemetry.Shutdown
}

type appOptions struct {
	// forceMemoryCache keeps results in process regardless of config.
	forceMemoryCache bool
	// withTelemetry installs the OTLP exporters.
	withTelemetry bool
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, opts appOptions) (a *app, err error) {
	a = &app{
		cfg:               cfg,
		log:               log,
		shutdownTelemetry: func(context.Context) error { return nil },
	}
	defer func() {
		if err != nil {
			a.close(context.WithoutCancel(ctx))
		}
	}()

	if opts.withTelemetry {
		a.shutdownTelemetry, err = telemetry.Setup(ctx, telemetry.Options{
			Enabled:        cfg.Tracing.Enabled,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRatio:    cfg.Tracing.SampleRatio,
			ExportMetrics:  cfg.Tracing.ExportMetrics,
			MetricInterval: cfg.Tracing.MetricInterval,
			ServiceName:    "product-aggregator",
			ServiceVersion: Version,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up telemetry: %w", err)
		}
	}

	if cfg.Database.Enabled() {
		a.pg, err = store.NewPostgresStore(ctx, cfg.Database.DSN(), cfg.Database.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.store = a.pg
		log.Info("rate snapshot persistence enabled", "host", cfg.Database.Host, "db", cfg.Database.Name)
	}

	a.limiter = ebay.NewRateLimiter(
		cfg.Ebay.RateLimit.PerSecond,
		cfg.Ebay.RateLimit.Burst,
		cfg.Ebay.RateLimit.DailyLimit,
	)

	tokens := ebay.NewOAuthTokenProvider(
		cfg.Ebay.AppID,
		cfg.Ebay.CertID,
		ebay.WithTokenURL(cfg.Ebay.TokenURL),
		ebay.WithScope(cfg.Ebay.Scope),
		ebay.WithHTTPClient(telemetry.HTTPClient("ebay.token", cfg.Ebay.Timeout)),
		ebay.WithTokenLogger(log),
	)

	analytics := ebay.NewAnalyticsClient(
		tokens,
		ebay.WithAnalyticsURL(cfg.Ebay.AnalyticsURL),
		ebay.WithAnalyticsHTTPClient(telemetry.HTTPClient("ebay.analytics", cfg.Ebay.Timeout)),
	)
	a.quota = ebay.NewQuotaSync(analytics, a.limiter)

	browse := ebay.NewBrowseClient(
		tokens,
		ebay.WithBrowseURL(cfg.Ebay.BrowseURL),
		ebay.WithMarketplace(cfg.Ebay.Marketplace),
		ebay.WithBrowseHTTPClient(telemetry.HTTPClient("ebay.browse", cfg.Ebay.Timeout)),
		ebay.WithRateLimiter(a.limiter),
		ebay.WithRetry(cfg.Ebay.Retry.MaxAttempts, cfg.Ebay.Retry.InitialInterval),
		ebay.WithBrowseLogger(log),
	)

	paginator := ebay.NewPaginator(
		browse,
		ebay.WithPageSize(cfg.Ebay.PageSize),
		ebay.WithMaxPages(cfg.Ebay.MaxPages),
		ebay.WithPaginatorLogger(log),
	)

	source := exchange.NewHTTPSource(
		cfg.Exchange.APIKey,
		exchange.WithSourceURL(cfg.Exchange.URL),
		exchange.WithSourceHTTPClient(telemetry.HTTPClient("exchange.latest", cfg.Exchange.Timeout)),
	)

	convOpts := []exchange.ConverterOption{
		exchange.WithBaseCurrency(cfg.Exchange.BaseCurrency),
		exchange.WithTTL(cfg.Exchange.TTL),
		exchange.WithFetchTimeout(cfg.Exchange.Timeout),
		exchange.WithLogger(log),
	}
	if a.store != nil {
		convOpts = append(convOpts, exchange.WithSnapshotStore(a.store))
	}
	a.converter = exchange.NewConverter(source, convOpts...)

	if cfg.Results.Backend == config.ResultsBackendRedis && !opts.forceMemoryCache {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.cache = resultcache.NewRedisCache(a.redis, resultcache.WithRedisTTL(cfg.Results.TTL))
	} else {
		a.cache = resultcache.NewMemoryCache(resultcache.WithMemoryTTL(cfg.Results.TTL))
	}

	processor := engine.NewProcessor(
		a.converter,
		engine.WithFallbackUnconverted(cfg.Exchange.FallbackUnconverted),
		engine.WithProcessorLogger(log),
	)

	a.engine = engine.NewEngine(
		paginator,
		processor,
		a.cache,
		engine.WithLogger(log),
		engine.WithAllowedCurrencies(cfg.Exchange.AllowedCurrencies),
		engine.WithCategoryID(cfg.Ebay.CategoryID),
		engine.WithSearchTimeout(cfg.Server.SearchTimeout),
	)

	return a, nil
}

// close releases backends in reverse order of creation.
func (a *app) close(ctx context.Context) {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.shutdownTelemetry != nil {
		errs = append(errs, a.shutdownTelemetry(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("closing backends", "error", err)
	}
}
