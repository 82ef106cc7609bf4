// Maintained by hand in the shape wire emits for the injector in wire.go.
// Keep the provider order and cleanup order in step with wire.go; running
// go generate replaces this file with wire's own output.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"FinCast/pkg/config"
	"FinCast/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup releases stores, clients and caches in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	artifactStores, cleanup, err := ProvideArtifactStores(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	modelRegistry := ProvideModelRegistry(artifactStores, logger)
	client, cleanup2, err := ProvideClickHouseClient(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	datasetSource, err := ProvideDatasetSource(cfg, client, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	trainer, err := ProvideTrainer(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	registry := ProvidePrometheusRegistry()
	trainingPublisher, cleanup3, err := ProvideTrainingPublisher(cfg, registry, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	metrics := ProvideMetrics(registry)
	trainingUseCase := ProvideTrainingUseCase(cfg, datasetSource, modelRegistry, trainer, trainingPublisher, metrics, logger)
	bytesCache, cleanup4 := ProvidePredictionCache(cfg, logger)
	predictionUseCase := ProvidePredictionUseCase(cfg, modelRegistry, bytesCache, metrics, logger)
	httpServer := ProvideHTTPServer(cfg, logger, registry, predictionUseCase, trainingUseCase)
	shutdownFunc, err := ProvideTracing(cfg)
	if err != nil {
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	app := ProvideApp(cfg, logger, trainingUseCase, predictionUseCase, httpServer, shutdownFunc)
	return app, func() {
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
