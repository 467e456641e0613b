//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/profile-factory/internal/adapters"
	"github.com/trebuchet-org/profile-factory/internal/config"
	"github.com/trebuchet-org/profile-factory/internal/logging"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// InitApp creates an App for commands that work offline
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.OfflineAdapters,

		// Use cases
		ProvideOfflineResolver,
		usecase.NewDecodeMetadata,

		NewApp,
	)
	return nil, nil
}

// InitDeployer creates a Deployer connected to the configured network.
// The returned cleanup closes the RPC connection.
func InitDeployer(v *viper.Viper, sink usecase.ProgressSink) (*Deployer, func(), error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewResolveBaseContracts,
		usecase.NewDeployContracts,
		usecase.NewUploadMetadata,
		usecase.NewTransferOwnership,
		ProvideDeployProfileConfig,
		usecase.NewDeployProfile,
		usecase.NewDecodeMetadata,
		usecase.NewInspectProfile,

		NewApp,
		NewDeployer,
	)
	return nil, nil, nil
}
