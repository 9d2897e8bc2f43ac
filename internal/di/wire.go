//go:build wireinject
// +build wireinject

package di

import (
	"PulseTrade/pkg/config"
	"PulseTrade/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Distribution core
		ProvideHub,
		ProvideQuoteCache,
		ProvideAlertManager,

		// Upstream clients
		ProvideMarketDataProvider,
		ProvideTradingClient,

		// Infrastructure
		ProvideStrategyStore,
		ProvideQuoteHistory,
		ProvideSignalPublisher,

		// Use cases
		ProvideRiskGate,
		ProvidePoller,
		ProvideScheduler,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
