package app

import (
	"context"
	"fmt"

	"portcall-service/internal/domain/repository"
	"portcall-service/internal/infrastructure/config"
	"portcall-service/internal/infrastructure/persistence"
	repo "portcall-service/internal/interface/repository"
	"portcall-service/internal/usecase"
	"portcall-service/pkg/logger"
	"portcall-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// App holds the components shared by the server and the CLI
type App struct {
	Config       *config.Config
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	Cache        *usecase.CacheStore
	Orchestrator *usecase.Orchestrator

	closers []func(ctx context.Context) error
}

// New connects the cache backend and wires the pipeline
func New(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewMetrics("portcall", reg),
	}

	cacheRepo, err := a.newCacheRepository(ctx)
	if err != nil {
		return nil, err
	}
	a.Cache = usecase.NewCacheStore(cacheRepo, cfg.CacheTTL, log, a.Metrics)

	research := repo.NewPerplexityRepository(cfg.PerplexityAPIKey, cfg.PerplexityBaseURL, cfg.PerplexityModel, cfg.ProducerTimeout, log)
	synthesis := repo.NewOpenAIRepository(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.SynthesisTimeout, log)
	if cfg.PerplexityAPIKey == "" {
		log.Warn("PERPLEXITY_API_KEY is not set, every research producer will fail")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, synthesis will always fall back")
	}

	producers := usecase.DefaultProducers(research, cfg.ProducerTimeout, log)
	aggregator := usecase.NewAggregator(synthesis, cfg.SynthesisTimeout, log, a.Metrics)
	a.Orchestrator = usecase.NewOrchestrator(a.Cache, producers, aggregator, cfg.AppVersion, cfg.CacheWriteTimeout, log, a.Metrics)

	return a, nil
}

func (a *App) newCacheRepository(ctx context.Context) (repository.CacheRepository, error) {
	switch a.Config.CacheBackend {
	case config.CacheBackendRedis:
		a.Logger.Info("Connecting to Redis", "addr", a.Config.RedisAddr)
		client, err := persistence.NewRedisClient(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return repo.NewRedisCacheRepository(client), nil

	case config.CacheBackendMongo:
		a.Logger.Info("Connecting to MongoDB")
		db, closeFn, err := persistence.NewMongoDatabase(ctx, persistence.MongoOptions{
			URI:      a.Config.MongoURI,
			Database: a.Config.MongoDB,
			Username: a.Config.MongoUser,
			Password: a.Config.MongoPassword,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeFn)
		return repo.NewMongoCacheRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported cache backend %q", a.Config.CacheBackend)
	}
}

// NewRequestProcessor connects PostgreSQL, migrates the request tables and
// returns a processor backed by the orchestrator
func (a *App) NewRequestProcessor() (*usecase.RequestProcessor, error) {
	a.Logger.Info("Connecting to PostgreSQL")
	db, err := persistence.NewPostgresDB(a.Config.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := repo.MigrateRequestTables(db); err != nil {
		return nil, fmt.Errorf("failed to migrate request tables: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
	}

	requests := repo.NewGormRequestRepository(db)
	return usecase.NewRequestProcessor(requests, a.Orchestrator, a.Logger, a.Metrics), nil
}

// Close releases every backend connection
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Error("Failed to close backend", "error", err)
		}
	}
	a.closers = nil
}
