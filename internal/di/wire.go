//go:build wireinject
// +build wireinject

package di

import (
	"Sentinel/pkg/config"
	"Sentinel/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Core services
		ProvideRiskState,
		ProvideRegimeState,
		ProvideFusionConfig,
		ProvideFusionEngine,
		ProvideThresholds,
		ProvideEvaluator,

		// Infrastructure
		ProvideStorage,
		ProvideCache,
		ProvideQuoteSources,
		ProvideKafkaProducer,
		ProvideVerdictPublisher,
		ProvideChipProvider,

		// Use cases
		ProvideRealtimeUseCase,
		ProvideEvaluateUseCase,
		ProvideRiskUseCase,
		ProvideRegimeUseCase,
		ProvideKafkaConsumer,

		// Transport
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
