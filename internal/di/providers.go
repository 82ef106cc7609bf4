package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/handler/api"
	internalrepo "FinCast/internal/repository"
	"FinCast/internal/services/regression"
	"FinCast/internal/usecase"
	"FinCast/pkg/cache"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/server"
	"FinCast/pkg/tracing"
)

// ArtifactStores is the ordered store list the registry searches.
type ArtifactStores struct {
	Primary   domrepo.ArtifactStore
	Fallbacks []domrepo.ArtifactStore
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideTracing installs the tracer provider configured for this process.
func ProvideTracing(cfg *config.Config) (tracing.ShutdownFunc, error) {
	shutdown, err := tracing.Init(context.Background(), cfg.Tracing, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return shutdown, nil
}

// ProvidePrometheusRegistry creates a registry with the Go and process collectors.
func ProvidePrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideArtifactStores opens the primary model store and the optional
// file-system fallback.
func ProvideArtifactStores(cfg *config.Config, l *applogger.Logger) (*ArtifactStores, func(), error) {
	stores := &ArtifactStores{}
	cleanup := func() {}

	switch cfg.Models.Backend {
	case "badger":
		bs, err := internalrepo.OpenBadgerArtifactStore(cfg.Models.Dir)
		if err != nil {
			// Badger holds an exclusive directory lock; a running server owns it.
			return nil, nil, fmt.Errorf("badger model store (train a serving instance with POST /train): %w", err)
		}
		stores.Primary = bs
		cleanup = func() {
			if err := bs.Close(); err != nil {
				l.Warn("badger model store close error", applogger.Error(err))
			}
		}
	default:
		stores.Primary = internalrepo.NewFSArtifactStore(cfg.Models.Dir, cfg.Models.Extension)
	}

	if cfg.Models.FallbackDir != "" {
		stores.Fallbacks = append(stores.Fallbacks,
			internalrepo.NewFSArtifactStore(cfg.Models.FallbackDir, cfg.Models.Extension))
	}
	return stores, cleanup, nil
}

// ProvideModelRegistry creates the model registry over the configured stores.
func ProvideModelRegistry(stores *ArtifactStores, l *applogger.Logger) domrepo.ModelRegistry {
	r := internalrepo.NewModelRegistry(stores.Primary, stores.Fallbacks...)
	r.SetLogger(l)
	return r
}

// ProvideClickHouseClient connects to ClickHouse when it is the dataset
// source; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if cfg.Datasets.Source != "clickhouse" {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClickHouse.DialTimeout+5*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvideDatasetSource creates the configured dataset source.
func ProvideDatasetSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (domrepo.DatasetSource, error) {
	switch cfg.Datasets.Source {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse dataset source: no client")
		}
		src, err := internalrepo.NewCHDatasetSource(ch.DB(), cfg.ClickHouse.Table)
		if err != nil {
			return nil, fmt.Errorf("clickhouse dataset source: %w", err)
		}
		src.SetLogger(l)
		return src, nil
	default:
		src := internalrepo.NewCSVDatasetSource(internalrepo.CSVSourceConfig{
			Dir:         cfg.Datasets.Dir,
			Extension:   cfg.Datasets.Extension,
			DateColumn:  cfg.Datasets.DateColumn,
			CloseColumn: cfg.Datasets.CloseColumn,
		})
		src.SetLogger(l)
		return src, nil
	}
}

// ProvideTrainer creates the regression trainer for the configured algorithm.
func ProvideTrainer(cfg *config.Config) (domsvc.Trainer, error) {
	switch cfg.Training.Algorithm {
	case regression.AlgorithmGBRT:
		g := cfg.Training.GBRT
		return regression.NewGBRTTrainer(regression.GBRTParams{
			Iterations:     g.Iterations,
			LearningRate:   g.LearningRate,
			MaxDepth:       g.MaxDepth,
			MinSamplesLeaf: g.MinSamplesLeaf,
		}), nil
	case regression.AlgorithmLinear:
		return regression.NewLinearTrainer(cfg.Training.Ridge), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", cfg.Training.Algorithm)
	}
}

// ProvideTrainingPublisher creates the Kafka outcome publisher, or a no-op
// one when Kafka is disabled.
func ProvideTrainingPublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (domrepo.TrainingPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopTrainingPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaTrainingPublisher(producer)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePredictionCache creates the prediction response cache. An
// unreachable Redis degrades to no caching.
func ProvidePredictionCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func()) {
	var c cache.BytesCache
	switch cfg.Cache.Backend {
	case "memory":
		c = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
		)
		if err != nil {
			l.Warn("redis cache unavailable, predictions will not be cached",
				applogger.String("addr", cfg.Cache.Redis.Addr),
				applogger.Error(err),
			)
			return cache.Noop{}, func() {}
		}
		c = rc
	default:
		return cache.Noop{}, func() {}
	}
	return c, func() {
		if err := c.Close(); err != nil {
			l.Warn("prediction cache close error", applogger.Error(err))
		}
	}
}

// ProvideTrainingUseCase creates the training use case.
func ProvideTrainingUseCase(
	cfg *config.Config,
	source domrepo.DatasetSource,
	registry domrepo.ModelRegistry,
	trainer domsvc.Trainer,
	publisher domrepo.TrainingPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.TrainingUseCase {
	return usecase.NewTrainingUseCase(source, registry, trainer,
		usecase.WithTrainingConfig(usecase.TrainingConfig{
			HoldoutRatio: cfg.Training.HoldoutRatio,
			MinRows:      cfg.Training.MinRows,
			Workers:      cfg.Training.Workers,
		}),
		usecase.WithTrainingPublisher(publisher),
		usecase.WithTrainingMetrics(m),
		usecase.WithTrainingLogger(l),
	)
}

// ProvidePredictionUseCase creates the prediction use case.
func ProvidePredictionUseCase(
	cfg *config.Config,
	registry domrepo.ModelRegistry,
	c cache.BytesCache,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(registry,
		usecase.WithPredictionCache(c, cfg.Cache.TTL),
		usecase.WithPredictionMetrics(m),
		usecase.WithPredictionLogger(l),
		usecase.WithPredictionTimeout(cfg.Server.WriteTimeout),
	)
}

// ProvideHTTPServer creates the Echo server with the prediction routes and
// the in-process training trigger.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	prediction *usecase.PredictionUseCase,
	training *usecase.TrainingUseCase,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	handlers := xhttp.Handlers{
		api.NewPredictionEchoHandler(l, prediction),
		api.NewTrainingEchoHandler(l, training),
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithAllowOrigins(cfg.Server.AllowOrigins),
		xhttp.WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		xhttp.WithRegistry(reg),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	training *usecase.TrainingUseCase,
	prediction *usecase.PredictionUseCase,
	httpServer *xhttp.Server,
	shutdown tracing.ShutdownFunc,
) *server.App {
	return server.New(cfg, l, training, prediction, httpServer, shutdown)
}
