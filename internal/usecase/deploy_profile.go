package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Pipeline stage names reported on DeploymentError
const (
	StageResolve     = "resolve"
	StageContracts   = "contracts"
	StageMetadata    = "metadata"
	StagePermissions = "permissions"
	StageOwnership   = "ownership"
)

// DeployProfileParams describes one profile deployment
type DeployProfileParams struct {
	Network       string
	Controllers   []domain.ControllerSpec
	Metadata      domain.MetadataSource
	Configuration domain.DeploymentConfiguration
	// Uploader overrides the process-wide upload provider for this deployment
	Uploader Uploader
	// Registry overrides the registry snapshot for this deployment
	Registry *domain.VersionRegistry
}

// DeployOption configures a single Deploy call
type DeployOption func(*deployOptions)

type deployOptions struct {
	onProgress func(domain.DeploymentEvent)
}

// WithProgress receives every event of the run, in order, before Deploy returns
func WithProgress(fn func(domain.DeploymentEvent)) DeployOption {
	return func(o *deployOptions) {
		o.onProgress = fn
	}
}

// DeploymentRun is a running deployment. All consumers share the same execution.
type DeploymentRun struct {
	*EventStream
}

// DeployProfile is the entry point of the deployment pipeline
type DeployProfile struct {
	sender    TransactionSender
	registry  RegistryProvider
	resolver  *ResolveBaseContracts
	contracts *DeployContracts
	metadata  *UploadMetadata
	ownership *TransferOwnership
	probe     bool
	progress  ProgressSink
	log       *slog.Logger
}

// DeployProfileConfig holds tuning for DeployProfile
type DeployProfileConfig struct {
	ProbeCode bool
}

// NewDeployProfile creates a new DeployProfile use case
func NewDeployProfile(
	sender TransactionSender,
	registry RegistryProvider,
	resolver *ResolveBaseContracts,
	contracts *DeployContracts,
	metadata *UploadMetadata,
	ownership *TransferOwnership,
	cfg DeployProfileConfig,
	progress ProgressSink,
	log *slog.Logger,
) *DeployProfile {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployProfile{
		sender:    sender,
		registry:  registry,
		resolver:  resolver,
		contracts: contracts,
		metadata:  metadata,
		ownership: ownership,
		probe:     cfg.ProbeCode,
		progress:  progress,
		log:       log.With("component", "DeployProfile"),
	}
}

// Deploy runs a deployment and waits for its result. Cancelling ctx stops waiting;
// transactions already in flight still complete.
func (uc *DeployProfile) Deploy(ctx context.Context, params DeployProfileParams, opts ...DeployOption) (domain.DeployedContractsResult, error) {
	var o deployOptions
	for _, opt := range opts {
		opt(&o)
	}

	run, err := uc.DeployAsStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return run.await(ctx, o)
}

// await waits for the run, delivering events to the progress callback first
func (run *DeploymentRun) await(ctx context.Context, o deployOptions) (domain.DeployedContractsResult, error) {
	var sub *Subscription
	if o.onProgress != nil {
		sub = run.Subscribe(ctx, ObserverFuncs{Event: o.onProgress})
	}
	result, err := run.Wait(ctx)
	if sub != nil {
		select {
		case <-sub.Done():
		case <-ctx.Done():
		}
	}
	return result, err
}

// DeployAsStream validates params and starts the pipeline in the background
func (uc *DeployProfile) DeployAsStream(ctx context.Context, params DeployProfileParams) (*DeploymentRun, error) {
	if err := domain.ValidateControllers(params.Controllers); err != nil {
		return nil, err
	}
	if draft, ok := params.Metadata.(domain.DraftMetadataSource); ok {
		if err := ValidateDraft(draft.Draft); err != nil {
			return nil, err
		}
		if !uc.metadata.CanUpload(params.Uploader) {
			return nil, &domain.UploadError{Name: "metadata", Err: ErrNoUploader}
		}
	}

	registry := params.Registry
	if registry == nil && uc.registry != nil {
		var err error
		if registry, err = uc.registry.Registry(ctx); err != nil {
			return nil, fmt.Errorf("failed to load version registry: %w", err)
		}
	}

	stream := NewEventStream(uuid.NewString())
	run := &DeploymentRun{EventStream: stream}
	pipelineCtx := context.WithoutCancel(ctx)

	go func() {
		err := uc.run(pipelineCtx, stream, params, registry)
		if err != nil {
			uc.progress.Error(err.Error())
		}
		stream.Finish(err)
	}()
	return run, nil
}

func (uc *DeployProfile) run(ctx context.Context, stream *EventStream, params DeployProfileParams, registry *domain.VersionRegistry) error {
	log := uc.log.With("run", stream.RunID(), "network", params.Network)
	emit := progressEmitter{stream: stream, sink: uc.progress, ctx: ctx}
	fail := func(stage string, err error) *domain.DeploymentError {
		log.Error("deployment failed", "stage", stage, "error", err)
		return &domain.DeploymentError{RunID: stream.RunID(), Stage: stage, Deployed: stream.Partial(), Err: err}
	}

	resolved, err := uc.resolver.Run(ctx, ResolveBaseContractsParams{
		Network:       params.Network,
		Configuration: params.Configuration,
		Registry:      registry,
		ProbeCode:     uc.probe,
	})
	if err != nil {
		return fail(StageResolve, err)
	}

	var (
		g        errgroup.Group
		deployed *DeployedContracts
		metadata *domain.EncodedMetadataResult
	)
	g.Go(func() error {
		var err error
		if deployed, err = uc.contracts.Run(ctx, resolved, emit); err != nil {
			return stageError{StageContracts, err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if metadata, err = uc.metadata.Run(ctx, params.Metadata, params.Uploader, emit); err != nil {
			return stageError{StageMetadata, err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		var se stageError
		if errors.As(err, &se) {
			return fail(se.stage, se.err)
		}
		return fail(StageContracts, err)
	}

	result := deployed.Result()
	var encoded []byte
	if metadata != nil {
		encoded = metadata.Encoded
	}
	plan, err := BuildPermissionPlan(PermissionPlanParams{
		Account:     result[domain.ContractAccount].Address,
		Delegate:    result[domain.ContractDelegate].Address,
		Deployer:    uc.sender.Address(),
		Controllers: params.Controllers,
		Metadata:    encoded,
	})
	if err != nil {
		return fail(StagePermissions, &domain.SequencingError{Step: "permission plan", Err: err})
	}
	log.Debug("permission plan", "entries", len(plan.Entries), "deployerIsController", plan.DeployerIsController)

	ownership := OwnershipParams{
		Account:           result[domain.ContractAccount].Address,
		PermissionManager: result[domain.ContractPermissionManager].Address,
		Plan:              plan,
	}
	if _, err := uc.ownership.Run(ctx, ownership, emit); err != nil {
		deployErr := fail(StageOwnership, err)
		deployErr.Ownership = checkpointFor(ownership, params.Network, err)
		return deployErr
	}

	log.Info("deployment complete",
		"account", result[domain.ContractAccount].Address.Hex(),
		"permissionManager", result[domain.ContractPermissionManager].Address.Hex(),
		"delegate", result[domain.ContractDelegate].Address.Hex())
	return nil
}

// ResumeOwnership retries the ownership transfer of a run that failed during it,
// starting at the phase that failed. The result holds the contracts of the
// original run. A second failure returns a new *domain.DeploymentError that can
// be resumed in turn.
func (uc *DeployProfile) ResumeOwnership(ctx context.Context, failed *domain.DeploymentError, opts ...DeployOption) (domain.DeployedContractsResult, error) {
	if failed == nil || !failed.Ownership.Resumable() {
		return nil, domain.ErrNotResumable
	}
	cp := failed.Ownership
	if cp.Deployer != uc.sender.Address() {
		return nil, fmt.Errorf("%w: checkpoint was written for deployer %s, not %s",
			domain.ErrNotResumable, cp.Deployer.Hex(), uc.sender.Address().Hex())
	}

	var o deployOptions
	for _, opt := range opts {
		opt(&o)
	}

	runID := failed.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	stream := NewEventStream(runID)
	stream.seed(failed.Deployed)
	run := &DeploymentRun{EventStream: stream}
	pipelineCtx := context.WithoutCancel(ctx)

	go func() {
		log := uc.log.With("run", runID, "network", cp.Network)
		emit := progressEmitter{stream: stream, sink: uc.progress, ctx: pipelineCtx}
		params := ResumeParams(cp)
		log.Info("resuming ownership transfer", "phase", cp.Phase, "account", cp.Account.Hex())

		var runErr error
		if _, err := uc.ownership.Run(pipelineCtx, params, emit); err != nil {
			log.Error("ownership transfer failed again", "error", err)
			runErr = &domain.DeploymentError{
				RunID:     runID,
				Stage:     StageOwnership,
				Deployed:  stream.Partial(),
				Err:       err,
				Ownership: checkpointFor(params, cp.Network, err),
			}
			uc.progress.Error(runErr.Error())
		}
		stream.Finish(runErr)
	}()
	return run.await(ctx, o)
}

// checkpointFor builds the retry point of a failed ownership sequence. Failures
// before any phase started are not resumable and yield nil.
func checkpointFor(params OwnershipParams, network string, err error) *domain.OwnershipCheckpoint {
	var phaseErr *domain.PhaseError
	if !errors.As(err, &phaseErr) {
		return nil
	}
	cp := params.Checkpoint(phaseErr.Phase)
	if !cp.Resumable() {
		return nil
	}
	cp.Network = network
	return cp
}

type stageError struct {
	stage string
	err   error
}

func (e stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e stageError) Unwrap() error { return e.err }

// progressEmitter forwards events to the stream and mirrors them to the progress sink
type progressEmitter struct {
	stream *EventStream
	sink   ProgressSink
	ctx    context.Context
}

func (e progressEmitter) Emit(event domain.DeploymentEvent) {
	if stamped, ok := e.stream.publish(event); ok {
		e.sink.OnEvent(e.ctx, stamped)
	}
}
