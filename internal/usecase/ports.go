package usecase

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// Signer is the raw signing collaborator. It knows nothing about concurrent
// submissions; every caller must go through a TransactionSender instead.
type Signer interface {
	Address() common.Address
	PendingNonce(ctx context.Context) (uint64, error)
	EstimateGas(ctx context.Context, req domain.TxRequest) (uint64, error)
	SendTransaction(ctx context.Context, req domain.TxRequest, nonce uint64) (*domain.PendingTx, error)
}

// TransactionSender submits transactions with correctly sequenced nonces
type TransactionSender interface {
	Address() common.Address
	Send(ctx context.Context, req domain.TxRequest) (*domain.PendingTx, error)
}

// Confirmer waits for a transaction to be mined
type Confirmer interface {
	Confirm(ctx context.Context, tx *domain.PendingTx) (*types.Receipt, error)
}

// CodeChecker probes whether an address holds contract code
type CodeChecker interface {
	HasCode(ctx context.Context, addr common.Address) (bool, error)
}

// DataReader reads a value from an account's key-value store
type DataReader interface {
	GetData(ctx context.Context, account common.Address, key common.Hash) ([]byte, error)
}

// Uploader stores content and returns its URL
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// MetadataEncoder converts between a {json, url} pair and its on-chain bytes
type MetadataEncoder interface {
	Encode(doc json.RawMessage, url string) ([]byte, error)
	Decode(data []byte) (*domain.JSONURL, error)
}

// MetadataFetcher retrieves uploaded content by URL
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArtifactRepository provides creation bytecode for fresh deployments.
// base selects the proxy-initializable variant of the contract.
type ArtifactRepository interface {
	Bytecode(ctx context.Context, name domain.ContractName, base bool) ([]byte, error)
}

// ResizedImage is one breakpoint variant produced by an ImageProcessor
type ResizedImage struct {
	Width       int
	Height      int
	ContentType string
	Data        []byte
}

// ImageProcessor resizes images to a set of maximum widths
type ImageProcessor interface {
	Resize(ctx context.Context, img domain.ImageInput, widths []int) ([]ResizedImage, error)
}

// RegistryProvider returns the version registry snapshot used for a deployment
type RegistryProvider interface {
	Registry(ctx context.Context) (*domain.VersionRegistry, error)
}

// EventEmitter accepts deployment events from the pipeline stages
type EventEmitter interface {
	Emit(event domain.DeploymentEvent)
}

// Progress tracking interfaces

// ProgressSink receives deployment events for display
type ProgressSink interface {
	OnEvent(ctx context.Context, event domain.DeploymentEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnEvent(context.Context, domain.DeploymentEvent) {}
func (NopProgress) Info(string)                                     {}
func (NopProgress) Error(string)                                    {}

// InteractiveSelector asks the user when input is missing or needs confirmation
type InteractiveSelector interface {
	SelectNetwork(ctx context.Context, names []string, prompt string) (string, error)
	Confirm(label string) (bool, error)
}
