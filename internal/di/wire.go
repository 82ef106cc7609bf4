//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinCast/pkg/config"
	"FinCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup releases stores, clients and caches in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideTracing,
		ProvidePrometheusRegistry,
		ProvideMetrics,

		// Infrastructure
		ProvideArtifactStores,
		ProvideClickHouseClient,
		ProvidePredictionCache,
		ProvideTrainingPublisher,

		// Repositories and algorithms
		ProvideModelRegistry,
		ProvideDatasetSource,
		ProvideTrainer,

		// Use cases
		ProvideTrainingUseCase,
		ProvidePredictionUseCase,

		// Application
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
