//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ConsensusBot/pkg/config"
	"ConsensusBot/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse order of creation.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Metrics
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideLogger,

		// Repositories
		ProvideSnapshotStore,
		ProvideTradeJournal,
		ProvideCandleStore,
		ProvideFeed,
		ProvideTickSource,
		ProvideVenue,
		ProvideClassifier,

		// Use cases
		ProvideEngine,
		ProvideEventSink,
		ProvideTradesUseCase,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
