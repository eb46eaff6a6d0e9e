//go:build wireinject
// +build wireinject

package di

import (
	"OptionPulse/pkg/config"
	"OptionPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Analytics state shared between feed and recommendation paths
		ProvideWindow,
		ProvideVolatility,
		ProvideTrend,

		// Feed
		ProvideMarketStream,
		ProvideFeedConnector,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideSharedCache,

		// Ledger and statistics
		ProvideLedger,
		ProvideStatsSource,

		// Trading
		ProvideSettlementEngine,
		ProvideLifecycle,
		ProvideRecommender,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
