package app

import (
	"log/slog"

	"github.com/trebuchet-org/profile-factory/internal/adapters/registry"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// App is the application container for commands that need no chain connection
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Registry *registry.Loader
	Progress usecase.ProgressSink
	Selector usecase.InteractiveSelector

	// Use cases
	ResolveBaseContracts *usecase.ResolveBaseContracts
	DecodeMetadata       *usecase.DecodeMetadata
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	registry *registry.Loader,
	progress usecase.ProgressSink,
	selector usecase.InteractiveSelector,
	resolveBaseContracts *usecase.ResolveBaseContracts,
	decodeMetadata *usecase.DecodeMetadata,
) (*App, error) {
	return &App{
		Config:               cfg,
		Log:                  log,
		Registry:             registry,
		Progress:             progress,
		Selector:             selector,
		ResolveBaseContracts: resolveBaseContracts,
		DecodeMetadata:       decodeMetadata,
	}, nil
}

// Deployer is the application container for commands that send transactions
type Deployer struct {
	*App

	Sender         usecase.TransactionSender
	DeployProfile  *usecase.DeployProfile
	InspectProfile *usecase.InspectProfile
}

// NewDeployer creates a new deployer instance
func NewDeployer(
	app *App,
	sender usecase.TransactionSender,
	deployProfile *usecase.DeployProfile,
	inspectProfile *usecase.InspectProfile,
) *Deployer {
	return &Deployer{
		App:            app,
		Sender:         sender,
		DeployProfile:  deployProfile,
		InspectProfile: inspectProfile,
	}
}

// ProvideOfflineResolver resolves base contracts without probing the chain
func ProvideOfflineResolver(artifacts usecase.ArtifactRepository, log *slog.Logger) *usecase.ResolveBaseContracts {
	return usecase.NewResolveBaseContracts(nil, artifacts, log)
}

// ProvideDeployProfileConfig extracts pipeline settings from the runtime configuration
func ProvideDeployProfileConfig(cfg *config.RuntimeConfig) usecase.DeployProfileConfig {
	return usecase.DeployProfileConfig{ProbeCode: cfg.Deploy.ProbeCode}
}
