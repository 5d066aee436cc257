package api

import (
	"context"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	pricingclient "github.com/Apurer/go-gin-order-taxes/internal/clients/http/pricing"
	orderevents "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/events"
	orderpricing "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/external/pricing"
	ordersmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/taxes"
	ordersports "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	taxrediscache "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/cache/redis"
	taxmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/memory"
	taxobs "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/observability"
	taxpostgres "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/persistence/postgres"
	taxapp "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/application"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
	"github.com/Apurer/go-gin-order-taxes/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-order-taxes/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-order-taxes/internal/platform/postgres"
)

// Services bundles the wired application services shared by the API and the worker.
type Services struct {
	Orders      ordersports.Service
	Taxation    taxports.Service
	Idempotency ordersports.IdempotencyStore
	// InMemory is set when postgres was unavailable. The repositories then
	// live in this process only and cannot be shared with a worker.
	InMemory bool
}

type cleanupStack []func()

func (s *cleanupStack) push(fn func()) { *s = append(*s, fn) }

func (s cleanupStack) run() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i]()
	}
}

// BuildServices wires repositories, caches, publishers and services from cfg.
// Missing infrastructure falls back to in-memory or no-op adapters. The returned
// cleanup releases every connection that was opened.
func BuildServices(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Services, func()) {
	logger := effectiveLogger(instruments)
	var cleanups cleanupStack

	db := connectPostgres(ctx, cfg, logger, &cleanups)

	var categories taxports.CategoryRepository
	var settings taxports.SettingsStore
	var orderRepo ordersports.Repository
	var idempotency ordersports.IdempotencyStore
	if db != nil {
		categories = taxpostgres.NewCategoryRepository(db)
		settings = taxpostgres.NewSettingsStore(db)
		orderRepo = orderspostgres.NewRepository(db)
		idempotency = orderspostgres.NewIdempotencyStore(db)
		logger.Info("repositories configured with postgres")
	} else {
		categories = taxmemory.NewCategoryRepository()
		settings = taxmemory.NewSettingsStore(nil)
		orderRepo = ordersmemory.NewRepository()
		idempotency = ordersmemory.NewIdempotencyStore()
	}
	categories = withCategoryCache(ctx, cfg, categories, logger, &cleanups)

	taxService := taxobs.New(
		taxapp.NewService(categories, settings),
		taxobs.WithLogger(logger),
		taxobs.WithTracer(instruments.Tracer("internal.taxation.application")),
		taxobs.WithMeter(instruments.Meter("internal.taxation.application")),
	)
	processor := taxes.NewProcessor(
		categories,
		taxapp.ZoneRateResolver{},
		taxes.WithDefaultTaxCategory(cfg.DefaultTaxCategory),
		taxes.WithDefaultCategoryLookup(taxService.DefaultCategory),
	)

	opts := []ordersapp.ServiceOption{
		ordersapp.WithIdempotencyStore(idempotency),
		ordersapp.WithEventPublisher(buildPublisher(cfg, logger, &cleanups)),
		ordersapp.WithLogger(logger),
	}
	if pricer := buildPricer(cfg, logger); pricer != nil {
		opts = append(opts, ordersapp.WithDeliveryPricer(pricer))
	}
	orderService := ordersobs.New(
		ordersapp.NewService(orderRepo, processor, opts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	return &Services{Orders: orderService, Taxation: taxService, Idempotency: idempotency, InMemory: db == nil}, cleanups.run
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger, cleanups *cleanupStack) *gorm.DB {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN,
		platformpostgres.WithPool(cfg.PostgresMaxOpenConns, cfg.PostgresMaxOpenConns/2, 30*time.Minute))
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return nil
	}
	cleanups.push(func() { _ = platformpostgres.Close(db) })
	if cfg.PostgresAutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Warn("postgres migrations failed", slog.String("error", err.Error()))
		}
	}
	return db
}

func withCategoryCache(ctx context.Context, cfg Config, inner taxports.CategoryRepository, logger *slog.Logger, cleanups *cleanupStack) taxports.CategoryRepository {
	if cfg.RedisAddr == "" {
		return inner
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, tax categories are not cached", slog.String("error", err.Error()))
		_ = rdb.Close()
		return inner
	}
	cleanups.push(func() { _ = rdb.Close() })
	logger.Info("tax category cache enabled", slog.String("addr", cfg.RedisAddr))
	return taxrediscache.NewCategoryRepository(inner, rdb, cfg.TaxCategoryCacheTTL, logger)
}

func buildPublisher(cfg Config, logger *slog.Logger, cleanups *cleanupStack) ordersports.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, order events are dropped")
		return orderevents.NopPublisher{}
	}
	publisher := orderevents.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, orderevents.WithLogger(logger))
	cleanups.push(func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka publisher", slog.String("error", err.Error()))
		}
	})
	logger.Info("order events published to kafka", slog.String("topic", cfg.KafkaTopic))
	return publisher
}

func buildPricer(cfg Config, logger *slog.Logger) ordersports.DeliveryPricer {
	if cfg.DeliveryPricingURL == "" {
		return nil
	}
	client, err := pricingclient.NewClient(cfg.DeliveryPricingURL, nil)
	if err != nil {
		logger.Warn("delivery pricing disabled", slog.String("error", err.Error()))
		return nil
	}
	return orderpricing.NewPricer(client)
}

// ConnectTemporalClient dials Temporal with tracing and structured logging.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
