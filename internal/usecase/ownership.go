package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/bindings"
)

var ownershipTransitions = map[domain.OwnershipPhase][]domain.OwnershipPhase{
	domain.PhaseIdle:       {domain.PhaseCommitting, domain.PhaseAccepting, domain.PhaseRevoking},
	domain.PhaseCommitting: {domain.PhaseAccepting, domain.PhaseFailed},
	domain.PhaseAccepting:  {domain.PhaseRevoking, domain.PhaseFailed},
	domain.PhaseRevoking:   {domain.PhaseDone, domain.PhaseFailed},
}

// OwnershipState tracks one run of the ownership sequence
type OwnershipState struct {
	phase domain.OwnershipPhase
}

// Phase returns the current phase
func (s *OwnershipState) Phase() domain.OwnershipPhase {
	if s.phase == "" {
		return domain.PhaseIdle
	}
	return s.phase
}

func (s *OwnershipState) transition(next domain.OwnershipPhase) error {
	current := s.Phase()
	for _, allowed := range ownershipTransitions[current] {
		if allowed == next {
			s.phase = next
			return nil
		}
	}
	return fmt.Errorf("invalid ownership transition %s -> %s", current, next)
}

// OwnershipParams contains the inputs of the ownership sequence
type OwnershipParams struct {
	Account           common.Address
	PermissionManager common.Address
	Plan              *PermissionPlan
	// From selects the first phase to run; PhaseIdle or PhaseCommitting run everything.
	// Later phases resume a sequence that failed part way.
	From domain.OwnershipPhase
}

// Checkpoint records params so the sequence can be retried starting at phase
func (p OwnershipParams) Checkpoint(phase domain.OwnershipPhase) *domain.OwnershipCheckpoint {
	cp := &domain.OwnershipCheckpoint{
		Account:           p.Account,
		PermissionManager: p.PermissionManager,
		Phase:             phase,
	}
	if p.Plan != nil {
		cp.Deployer = p.Plan.Deployer
		cp.Entries = append([]domain.DataEntry(nil), p.Plan.Entries...)
		cp.RevokeValue = append([]byte{}, p.Plan.RevokeValue...)
	}
	return cp
}

// ResumeParams rebuilds the inputs of a sequence from a checkpoint
func ResumeParams(cp *domain.OwnershipCheckpoint) OwnershipParams {
	return OwnershipParams{
		Account:           cp.Account,
		PermissionManager: cp.PermissionManager,
		Plan: &PermissionPlan{
			Entries:              cp.Entries,
			Deployer:             cp.Deployer,
			DeployerIsController: len(cp.RevokeValue) > 0,
			RevokeValue:          cp.RevokeValue,
		},
		From: cp.Phase,
	}
}

// TransferOwnership writes the permission plan, hands the account to the
// permission manager and drops the deployer's temporary rights.
type TransferOwnership struct {
	tx                transactor
	account           *bindings.Account
	permissionManager *bindings.PermissionManager
	log               *slog.Logger
}

// NewTransferOwnership creates a new ownership sequencer
func NewTransferOwnership(sender TransactionSender, confirmer Confirmer, log *slog.Logger) *TransferOwnership {
	return &TransferOwnership{
		tx:                transactor{sender: sender, confirmer: confirmer},
		account:           bindings.NewAccount(),
		permissionManager: bindings.NewPermissionManager(),
		log:               log.With("component", "TransferOwnership"),
	}
}

// Run executes the phases in order. Each phase starts only after every transaction
// of the previous one is confirmed. A failure returns a *domain.PhaseError.
func (uc *TransferOwnership) Run(ctx context.Context, params OwnershipParams, emit EventEmitter) (*OwnershipState, error) {
	state := &OwnershipState{}
	if params.Account == (common.Address{}) || params.PermissionManager == (common.Address{}) {
		return state, &domain.PhaseError{Phase: domain.PhaseIdle, Err: &domain.SequencingError{
			Step: "ownership transfer",
			Err:  fmt.Errorf("%w: account or permission manager address is not known", domain.ErrInvalidAddress),
		}}
	}
	if params.Plan == nil {
		return state, &domain.PhaseError{Phase: domain.PhaseIdle, Err: &domain.SequencingError{
			Step: "ownership transfer",
			Err:  fmt.Errorf("no permission plan"),
		}}
	}

	phases := []struct {
		phase domain.OwnershipPhase
		run   func(context.Context, OwnershipParams, EventEmitter) error
	}{
		{domain.PhaseCommitting, uc.commit},
		{domain.PhaseAccepting, uc.accept},
		{domain.PhaseRevoking, uc.revoke},
	}

	started := params.From == "" || params.From == domain.PhaseIdle
	for _, p := range phases {
		if !started && p.phase != params.From {
			continue
		}
		started = true
		if err := state.transition(p.phase); err != nil {
			return state, &domain.PhaseError{Phase: state.Phase(), Err: err}
		}
		uc.log.Info("ownership phase", "phase", p.phase, "account", params.Account.Hex())
		if err := p.run(ctx, params, emit); err != nil {
			_ = state.transition(domain.PhaseFailed)
			return state, &domain.PhaseError{Phase: p.phase, Err: err}
		}
	}
	if !started {
		return state, &domain.PhaseError{Phase: params.From, Err: fmt.Errorf("cannot resume from phase %s", params.From)}
	}
	if err := state.transition(domain.PhaseDone); err != nil {
		return state, &domain.PhaseError{Phase: state.Phase(), Err: err}
	}
	return state, nil
}

// commit submits the batched writes and the ownership transfer together, then waits for both
func (uc *TransferOwnership) commit(ctx context.Context, params OwnershipParams, emit EventEmitter) error {
	keys, values := domain.SplitEntries(params.Plan.Entries)
	batch, err := uc.account.TryPackSetDataBatch(keys, values)
	if err != nil {
		return err
	}
	account := params.Account

	setTx, setEvent, err := uc.tx.submit(ctx, emit, domain.DeploymentEvent{
		Kind:         domain.EventTransaction,
		ContractName: domain.ContractAccount,
		FunctionName: domain.FunctionSetDataBatch,
		Phase:        domain.PhaseCommitting,
	}, domain.TxRequest{To: &account, Data: batch})
	if err != nil {
		return err
	}
	transferTx, transferEvent, err := uc.tx.submit(ctx, emit, domain.DeploymentEvent{
		Kind:         domain.EventTransaction,
		ContractName: domain.ContractAccount,
		FunctionName: domain.FunctionTransferOwnership,
		Phase:        domain.PhaseCommitting,
	}, domain.TxRequest{To: &account, Data: uc.account.PackTransferOwnership(params.PermissionManager)})
	if err != nil {
		// the batch is already broadcast; wait for it so the caller sees a consistent state
		if _, cerr := uc.tx.confirm(ctx, emit, setEvent, setTx); cerr != nil {
			uc.log.Warn("setDataBatch failed after transferOwnership submission error", "error", cerr)
		}
		return err
	}

	_, setErr := uc.tx.confirm(ctx, emit, setEvent, setTx)
	_, transferErr := uc.tx.confirm(ctx, emit, transferEvent, transferTx)
	if setErr != nil {
		return setErr
	}
	return transferErr
}

// accept relays acceptOwnership through the permission manager
func (uc *TransferOwnership) accept(ctx context.Context, params OwnershipParams, emit EventEmitter) error {
	_, err := uc.relay(ctx, params, emit, domain.FunctionAcceptOwnership, domain.PhaseAccepting,
		uc.account.PackAcceptOwnership())
	return err
}

// revoke relays a setData call resetting the deployer's permission entry
func (uc *TransferOwnership) revoke(ctx context.Context, params OwnershipParams, emit EventEmitter) error {
	_, err := uc.relay(ctx, params, emit, domain.FunctionRevokeDeployer, domain.PhaseRevoking,
		uc.account.PackSetData(domain.PermissionKey(params.Plan.Deployer), params.Plan.RevokeValue))
	return err
}

func (uc *TransferOwnership) relay(ctx context.Context, params OwnershipParams, emit EventEmitter, function string, phase domain.OwnershipPhase, payload []byte) (*types.Receipt, error) {
	pm := params.PermissionManager
	return uc.tx.execute(ctx, emit, domain.DeploymentEvent{
		Kind:         domain.EventTransaction,
		ContractName: domain.ContractPermissionManager,
		FunctionName: function,
		Phase:        phase,
	}, domain.TxRequest{To: &pm, Data: uc.permissionManager.PackExecute(payload)})
}
