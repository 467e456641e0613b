// Package factory deploys smart contract accounts from Go applications.
//
// A Factory owns one nonce sequencer per signer, so deployments started
// concurrently from the same Factory never collide on nonces:
//
//	f, err := factory.New(ctx, factory.Options{Backend: client, PrivateKey: key})
//	result, err := f.Deploy(ctx, factory.DeployParams{
//		Network:     "4201",
//		Controllers: []factory.ControllerSpec{factory.Controller(owner)},
//	})
package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/profile-factory/internal/adapters/artifacts"
	"github.com/trebuchet-org/profile-factory/internal/adapters/blockchain"
	"github.com/trebuchet-org/profile-factory/internal/adapters/images"
	"github.com/trebuchet-org/profile-factory/internal/adapters/metadata"
	"github.com/trebuchet-org/profile-factory/internal/adapters/registry"
	"github.com/trebuchet-org/profile-factory/internal/adapters/upload"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// DefaultGasBuffer is added to every gas estimate
const DefaultGasBuffer = 100_000

type (
	Backend         = blockchain.Backend
	Signer          = usecase.Signer
	Uploader        = usecase.Uploader
	ProgressSink    = usecase.ProgressSink
	DeployParams    = usecase.DeployProfileParams
	DeployOption    = usecase.DeployOption
	DeploymentRun   = usecase.DeploymentRun
	Observer        = usecase.Observer
	ObserverFuncs   = usecase.ObserverFuncs
	Result          = domain.DeployedContractsResult
	Event           = domain.DeploymentEvent
	ControllerSpec  = domain.ControllerSpec
	Permission      = domain.Permission
	ProfileDraft    = domain.ProfileDraft
	Configuration   = domain.DeploymentConfiguration
	Override        = domain.ContractOverride
	Registry        = domain.VersionRegistry
	DeploymentError = domain.DeploymentError
	Checkpoint      = domain.OwnershipCheckpoint
)

// Storage keys written to every deployed account
var (
	MetadataKey         = domain.MetadataKey
	DelegateKey         = domain.DelegateKey
	ControllersArrayKey = domain.ControllersArrayKey
	PermissionKey       = domain.PermissionKey
)

// Constructors re-exported for callers outside this module
var (
	Controller                = domain.Controller
	ControllerWithPermissions = domain.ControllerWithPermissions
	ParseControllerSpec       = domain.ParseControllerSpec
	ParsePermissions          = domain.ParsePermissions
	EncodedMetadata           = domain.EncodedMetadata
	UploadedMetadata          = domain.UploadedMetadata
	MetadataToUpload          = domain.MetadataToUpload
	WithProgress              = usecase.WithProgress
)

// Options configures a Factory. Backend and one of Signer or PrivateKey are required.
type Options struct {
	Backend    Backend
	Signer     Signer
	PrivateKey string

	// ChainID is checked against the backend; zero asks the backend
	ChainID uint64

	// Uploader stores metadata and assets. Without one, deployments with a
	// ProfileDraft are rejected; encoded or already uploaded metadata still works.
	Uploader Uploader

	// Gateway resolves ipfs:// URLs when decoding metadata; empty uses a public gateway
	Gateway string

	// Registry replaces the embedded version registry
	Registry *Registry

	// ArtifactsDir holds compiled contracts for fresh deployments
	ArtifactsDir string

	GasBuffer        uint64
	DisableCodeProbe bool

	Progress ProgressSink
	Logger   *slog.Logger
}

// Factory deploys accounts with a single deployer key
type Factory struct {
	sender   *usecase.NonceSequencer
	pipeline *usecase.DeployProfile
	inspect  *usecase.InspectProfile
	decode   *usecase.DecodeMetadata
}

// New wires the deployment pipeline around the given backend
func New(ctx context.Context, opts Options) (*Factory, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("factory: no backend")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	signer := opts.Signer
	if signer == nil {
		if opts.PrivateKey == "" {
			return nil, fmt.Errorf("factory: no signer or private key")
		}
		chainID := opts.ChainID
		if chainID == 0 {
			id, err := opts.Backend.ChainID(ctx)
			if err != nil {
				return nil, fmt.Errorf("factory: failed to get chain ID: %w", err)
			}
			chainID = id.Uint64()
		}
		key, err := blockchain.NewKeySigner(opts.Backend, opts.PrivateKey, chainID)
		if err != nil {
			return nil, err
		}
		signer = key
	}

	gasBuffer := opts.GasBuffer
	if gasBuffer == 0 {
		gasBuffer = DefaultGasBuffer
	}
	uploader := opts.Uploader

	var registryProvider usecase.RegistryProvider = registry.NewLoader(&config.RuntimeConfig{}, log)
	if opts.Registry != nil {
		registryProvider = fixedRegistry{opts.Registry}
	}

	sender := usecase.NewNonceSequencer(signer, gasBuffer, log)
	confirmer := blockchain.NewReceiptConfirmer(opts.Backend, log)
	checker := blockchain.NewCheckerAdapter(opts.Backend)
	encoder := metadata.NewJSONURLEncoder()
	repo := artifacts.NewRepositoryAt(opts.ArtifactsDir, artifacts.DefaultNames, log)

	var fetcher usecase.MetadataFetcher = metadata.NewHTTPFetcher(upload.NewHTTPClient(0, log), opts.Gateway)
	if f, ok := uploader.(usecase.MetadataFetcher); ok {
		fetcher = f
	}

	return &Factory{
		sender: sender,
		pipeline: usecase.NewDeployProfile(
			sender,
			registryProvider,
			usecase.NewResolveBaseContracts(checker, repo, log),
			usecase.NewDeployContracts(sender, confirmer, log),
			usecase.NewUploadMetadata(uploader, encoder, images.NewResizer(), log),
			usecase.NewTransferOwnership(sender, confirmer, log),
			usecase.DeployProfileConfig{ProbeCode: !opts.DisableCodeProbe},
			opts.Progress,
			log,
		),
		inspect: usecase.NewInspectProfile(checker),
		decode:  usecase.NewDecodeMetadata(encoder, fetcher),
	}, nil
}

// Deployer returns the address sending every transaction
func (f *Factory) Deployer() common.Address {
	return f.sender.Address()
}

// Deploy runs a deployment and waits for the result
func (f *Factory) Deploy(ctx context.Context, params DeployParams, opts ...DeployOption) (Result, error) {
	return f.pipeline.Deploy(ctx, params, opts...)
}

// DeployAsStream starts a deployment and returns its replayable event stream
func (f *Factory) DeployAsStream(ctx context.Context, params DeployParams) (*DeploymentRun, error) {
	return f.pipeline.DeployAsStream(ctx, params)
}

// ResumeOwnership retries the ownership transfer of a deployment that failed during
// it. failed is the error returned by Deploy or a stream's Wait; it must carry an
// ownership checkpoint for this Factory's deployer.
func (f *Factory) ResumeOwnership(ctx context.Context, failed *DeploymentError, opts ...DeployOption) (Result, error) {
	return f.pipeline.ResumeOwnership(ctx, failed, opts...)
}

// Inspect reads the delegate, controllers and metadata linked to account
func (f *Factory) Inspect(ctx context.Context, account common.Address) (*usecase.ProfileState, error) {
	return f.inspect.Run(ctx, account)
}

// DecodeMetadata decodes a metadata value. With fetch set the document is retrieved
// through the uploader when it can serve downloads, over HTTP otherwise.
func (f *Factory) DecodeMetadata(ctx context.Context, data []byte, fetch bool) (*usecase.DecodeMetadataResult, error) {
	return f.decode.Run(ctx, data, fetch)
}

type fixedRegistry struct {
	reg *domain.VersionRegistry
}

func (r fixedRegistry) Registry(context.Context) (*domain.VersionRegistry, error) {
	return r.reg, nil
}
