package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// transactor submits transactions through the sequencer and reports each
// submission and confirmation as a pair of events.
type transactor struct {
	sender    TransactionSender
	confirmer Confirmer
}

// submit broadcasts req and emits the Pending event
func (t transactor) submit(ctx context.Context, emit EventEmitter, event domain.DeploymentEvent, req domain.TxRequest) (*domain.PendingTx, domain.DeploymentEvent, error) {
	tx, err := t.sender.Send(ctx, req)
	if err != nil {
		return nil, event, &domain.SubmissionError{Contract: event.ContractName, Function: event.FunctionName, Err: err}
	}
	event.Status = domain.StatusPending
	event.Transaction = tx
	emit.Emit(event)
	return tx, event, nil
}

// confirm waits for tx and emits the Complete event derived from pending
func (t transactor) confirm(ctx context.Context, emit EventEmitter, pending domain.DeploymentEvent, tx *domain.PendingTx) (*types.Receipt, error) {
	receipt, err := t.confirmer.Confirm(ctx, tx)
	if err != nil {
		return nil, &domain.ConfirmationError{Contract: pending.ContractName, Function: pending.FunctionName, TxHash: tx.Hash, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &domain.ConfirmationError{Contract: pending.ContractName, Function: pending.FunctionName, TxHash: tx.Hash, Reverted: true}
	}
	emit.Emit(pending.Complete(receipt))
	return receipt, nil
}

// execute submits and confirms a single transaction
func (t transactor) execute(ctx context.Context, emit EventEmitter, event domain.DeploymentEvent, req domain.TxRequest) (*types.Receipt, error) {
	tx, pending, err := t.submit(ctx, emit, event, req)
	if err != nil {
		return nil, err
	}
	return t.confirm(ctx, emit, pending, tx)
}
