package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/wire"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/trebuchet-org/profile-factory/internal/adapters/artifacts"
	"github.com/trebuchet-org/profile-factory/internal/adapters/blockchain"
	"github.com/trebuchet-org/profile-factory/internal/adapters/images"
	"github.com/trebuchet-org/profile-factory/internal/adapters/interactive"
	"github.com/trebuchet-org/profile-factory/internal/adapters/metadata"
	"github.com/trebuchet-org/profile-factory/internal/adapters/registry"
	"github.com/trebuchet-org/profile-factory/internal/adapters/upload"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// dialTimeout bounds connecting to the RPC endpoint
const dialTimeout = 30 * time.Second

// ProvideBackend connects to the configured network. The chain id of a bare
// RPC URL network is filled in from the node.
func ProvideBackend(cfg *config.RuntimeConfig) (*ethclient.Client, func(), error) {
	if cfg.Network == nil || cfg.Network.RPCURL == "" {
		return nil, nil, fmt.Errorf("no network configured, use --network")
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	client, chainID, err := blockchain.Dial(ctx, cfg.Network.RPCURL, cfg.Network.ChainID)
	if err != nil {
		return nil, nil, fmt.Errorf("network %s: %w", cfg.Network.Name, err)
	}
	cfg.Network.ChainID = chainID
	return client, client.Close, nil
}

// ProvideSigner creates the deployer key signer
func ProvideSigner(backend blockchain.Backend, cfg *config.RuntimeConfig) (*blockchain.KeySigner, error) {
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("no deployer key configured, set PFACTORY_PRIVATE_KEY")
	}
	return blockchain.NewKeySigner(backend, cfg.PrivateKey, cfg.Network.ChainID)
}

// ProvideNonceSequencer wraps the signer; one instance is shared by every deployment of the process
func ProvideNonceSequencer(signer usecase.Signer, cfg *config.RuntimeConfig, log *slog.Logger) *usecase.NonceSequencer {
	return usecase.NewNonceSequencer(signer, cfg.Deploy.GasBuffer, log)
}

// ProvideHTTPClient creates the HTTP client shared by upload providers and the metadata fetcher
func ProvideHTTPClient(cfg *config.RuntimeConfig, log *slog.Logger) *retryablehttp.Client {
	return upload.NewHTTPClient(cfg.Upload.RetryMax, log)
}

// ProvideUploader selects the upload provider named in the configuration
func ProvideUploader(cfg *config.RuntimeConfig, client *retryablehttp.Client) (usecase.Uploader, error) {
	switch cfg.Upload.Provider {
	case "", "ipfs":
		return upload.NewIPFSUploader(client, cfg.Upload.APIURL), nil
	case "pinata":
		return upload.NewPinataUploader(client, cfg.Upload.APIURL, cfg.Upload.PinataJWT)
	case "memory":
		return upload.NewMemoryUploader(), nil
	}
	return nil, fmt.Errorf("unknown upload provider %q (expected ipfs, pinata or memory)", cfg.Upload.Provider)
}

// ProvideFetcher creates the metadata fetcher
func ProvideFetcher(cfg *config.RuntimeConfig, client *retryablehttp.Client) *metadata.HTTPFetcher {
	return metadata.NewHTTPFetcher(client, cfg.Upload.GatewayURL)
}

// BlockchainSet provides the chain-facing implementations
var BlockchainSet = wire.NewSet(
	ProvideBackend,
	wire.Bind(new(blockchain.Backend), new(*ethclient.Client)),

	ProvideSigner,
	wire.Bind(new(usecase.Signer), new(*blockchain.KeySigner)),

	ProvideNonceSequencer,
	wire.Bind(new(usecase.TransactionSender), new(*usecase.NonceSequencer)),

	blockchain.NewReceiptConfirmer,
	wire.Bind(new(usecase.Confirmer), new(*blockchain.ReceiptConfirmer)),

	blockchain.NewCheckerAdapter,
	wire.Bind(new(usecase.CodeChecker), new(*blockchain.CheckerAdapter)),
	wire.Bind(new(usecase.DataReader), new(*blockchain.CheckerAdapter)),
)

// HTTPSet provides the shared HTTP client
var HTTPSet = wire.NewSet(
	ProvideHTTPClient,
)

// UploadSet provides the upload provider
var UploadSet = wire.NewSet(
	ProvideUploader,
)

// MetadataSet provides metadata encoding and fetching
var MetadataSet = wire.NewSet(
	metadata.NewJSONURLEncoder,
	wire.Bind(new(usecase.MetadataEncoder), new(*metadata.JSONURLEncoder)),

	ProvideFetcher,
	wire.Bind(new(usecase.MetadataFetcher), new(*metadata.HTTPFetcher)),
)

// ImageSet provides image processing
var ImageSet = wire.NewSet(
	images.NewResizer,
	wire.Bind(new(usecase.ImageProcessor), new(*images.Resizer)),
)

// RegistrySet provides the version registry and compiled artifacts
var RegistrySet = wire.NewSet(
	registry.NewLoader,
	wire.Bind(new(usecase.RegistryProvider), new(*registry.Loader)),

	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),
)

// InteractiveSet provides terminal prompts
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.InteractiveSelector), new(*interactive.SelectorAdapter)),
)

// OfflineAdapters covers everything that works without a network connection
var OfflineAdapters = wire.NewSet(
	HTTPSet,
	MetadataSet,
	RegistrySet,
	InteractiveSet,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	OfflineAdapters,
	BlockchainSet,
	UploadSet,
	ImageSet,
)
