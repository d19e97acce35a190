package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barber-availability/docs"
	"github.com/wolfman30/barber-availability/internal/api/router"
	"github.com/wolfman30/barber-availability/internal/availability"
	appconfig "github.com/wolfman30/barber-availability/internal/config"
	"github.com/wolfman30/barber-availability/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/barber-availability/internal/http/middleware"
	"github.com/wolfman30/barber-availability/internal/observability/metrics"
	"github.com/wolfman30/barber-availability/internal/store"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// Backend is everything the HTTP surface reads from a store.
type Backend interface {
	availability.StaffDirectory
	availability.ServiceCatalog
	availability.AppointmentLedger
	handlers.BusinessReader
}

// Deps carries clients created by the entrypoint. Dynamo is required for the
// dynamodb backend; Redis enables the appointment cache; Registry defaults to
// a fresh registry.
type Deps struct {
	Dynamo   *dynamodb.Client
	Redis    *redis.Client
	Registry *prometheus.Registry
}

// App is the wired availability service.
type App struct {
	Handler http.Handler
	Engine  *availability.Engine
	closers []func()
}

// AddCloser registers fn to run on Close, after closers added earlier.
func (a *App) AddCloser(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order of registration.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildBackend opens the store selected by STORE_BACKEND.
func BuildBackend(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (Backend, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case appconfig.BackendDynamoDB:
		if deps.Dynamo == nil {
			return nil, noop, fmt.Errorf("bootstrap: dynamodb client required for %s backend", cfg.StoreBackend)
		}
		return store.NewDynamoStore(deps.Dynamo, cfg.AppointmentTableName, logger), noop, nil
	case appconfig.BackendPostgres:
		pool, err := BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return store.NewPostgresStore(pool), pool.Close, nil
	case appconfig.BackendMemory:
		fixture, err := store.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, noop, err
		}
		mem, err := store.NewMemoryStoreFromFixture(fixture)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("memory store loaded",
			"fixture", cfg.FixturePath,
			"businesses", len(fixture.Businesses),
			"staff", len(fixture.Staff),
			"appointments", len(fixture.Appointments),
		)
		return mem, noop, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}
}

// NewApp wires store, cache, engine, handlers and router from cfg.
func NewApp(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: business timezone: %w", err)
	}

	backend, closeBackend, err := BuildBackend(ctx, cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	app := &App{closers: []func(){closeBackend}}

	var (
		availabilityMetrics *metrics.AvailabilityMetrics
		metricsHandler      http.Handler
	)
	if cfg.MetricsEnabled {
		reg := deps.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		availabilityMetrics = metrics.NewAvailabilityMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	var ledger availability.AppointmentLedger = backend
	if deps.Redis != nil {
		ledger = store.NewCachedLedger(backend, deps.Redis, cfg.AppointmentCacheTTL, logger, availabilityMetrics)
		logger.Info("appointment cache enabled", "ttl", cfg.AppointmentCacheTTL.String())
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	docsHandler, err := handlers.NewDocsHandler(docs.OpenAPI)
	if err != nil {
		app.Close()
		return nil, err
	}

	engine := availability.NewEngine(backend, backend, ledger,
		availability.WithLogger(logger),
		availability.WithMetrics(availabilityMetrics),
		availability.WithStaffConcurrency(cfg.AvailabilityStaffConcurrency),
	)
	app.Engine = engine
	app.Handler = router.New(&router.Config{
		Logger: logger,
		AvailabilityHandler: handlers.NewAvailabilityHandler(handlers.AvailabilityHandlerConfig{
			Engine:       engine,
			Logger:       logger,
			Location:     loc,
			MaxRangeDays: cfg.AvailabilityMaxRangeDays,
		}),
		BusinessHandler:    handlers.NewBusinessHandler(backend, logger),
		DocsHandler:        docsHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return app, nil
}
