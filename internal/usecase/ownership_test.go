package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

var ownedManager = common.HexToAddress("0xBB00000000000000000000000000000000000001")

func ownershipFixture(t *testing.T, controllers ...domain.ControllerSpec) (*fakeChain, *usecase.TransferOwnership, usecase.OwnershipParams) {
	t.Helper()
	chain := newFakeChain()
	seq := usecase.NewNonceSequencer(chain, 0, testLogger())
	plan, err := usecase.BuildPermissionPlan(usecase.PermissionPlanParams{
		Account:     planAccount,
		Delegate:    planDelegate,
		Deployer:    deployerAddr,
		Controllers: controllers,
		Metadata:    planMetadata,
	})
	require.NoError(t, err)
	return chain, usecase.NewTransferOwnership(seq, chain, testLogger()), usecase.OwnershipParams{
		Account:           planAccount,
		PermissionManager: ownedManager,
		Plan:              plan,
	}
}

func TestTransferOwnership_RunsAllPhases(t *testing.T) {
	chain, uc, params := ownershipFixture(t, domain.Controller(controllerA))
	stream := usecase.NewEventStream("own-1")

	state, err := uc.Run(context.Background(), params, stream)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDone, state.Phase())

	assert.Equal(t, []string{
		"setDataBatch",
		"transferOwnership",
		"execute:acceptOwnership",
		"execute:setData",
	}, chain.Labels())
	assert.Equal(t, ownedManager, chain.Owner(planAccount))

	// both commit transactions are confirmed before the accept is submitted
	var steps []string
	for _, e := range stream.History() {
		steps = append(steps, string(e.Status)+":"+e.FunctionName)
	}
	assert.Equal(t, []string{
		"PENDING:setDataBatch",
		"PENDING:transferOwnership",
		"COMPLETE:setDataBatch",
		"COMPLETE:transferOwnership",
		"PENDING:acceptOwnership",
		"COMPLETE:acceptOwnership",
		"PENDING:setData",
		"COMPLETE:setData",
	}, steps)

	for _, e := range stream.History() {
		assert.Equal(t, domain.EventTransaction, e.Kind)
		assert.NotEmpty(t, e.Phase)
	}
	assert.Empty(t, stream.Partial(), "transactions do not add result entries")

	perms, err := chain.GetData(context.Background(), planAccount, domain.PermissionKey(deployerAddr))
	require.NoError(t, err)
	assert.Empty(t, perms, "deployer permissions are cleared")

	delegate, err := chain.GetData(context.Background(), planAccount, domain.DelegateKey)
	require.NoError(t, err)
	assert.Equal(t, planDelegate.Bytes(), delegate)
}

func TestTransferOwnership_DeployerControllerKeepsItsPermissions(t *testing.T) {
	chain, uc, params := ownershipFixture(t,
		domain.ControllerWithPermissions(deployerAddr, domain.PermSetData),
		domain.Controller(controllerA),
	)

	_, err := uc.Run(context.Background(), params, usecase.NewEventStream("own-2"))
	require.NoError(t, err)

	perms, err := chain.GetData(context.Background(), planAccount, domain.PermissionKey(deployerAddr))
	require.NoError(t, err)
	assert.Equal(t, domain.PermSetData.Bytes32(), perms)
}

func TestTransferOwnership_FailureAndResume(t *testing.T) {
	chain, uc, params := ownershipFixture(t, domain.Controller(controllerA))
	chain.revert = func(tx sentTx) bool { return tx.Label == "execute:acceptOwnership" }

	state, err := uc.Run(context.Background(), params, usecase.NewEventStream("own-3"))
	require.Error(t, err)
	assert.Equal(t, domain.PhaseFailed, state.Phase())

	var phaseErr *domain.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, domain.PhaseAccepting, phaseErr.Phase)

	var confirmErr *domain.ConfirmationError
	require.ErrorAs(t, err, &confirmErr)
	assert.True(t, confirmErr.Reverted)
	assert.Equal(t, domain.ContractPermissionManager, confirmErr.Contract)

	assert.Equal(t, common.Address{}, chain.Owner(planAccount))
	assert.NotContains(t, chain.Labels(), "execute:setData", "revoke never starts after a failed accept")

	// resume skips the committed writes
	chain.revert = nil
	stream := usecase.NewEventStream("own-3b")
	params.From = domain.PhaseAccepting
	state, err = uc.Run(context.Background(), params, stream)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDone, state.Phase())
	assert.Equal(t, ownedManager, chain.Owner(planAccount))

	labels := chain.Labels()
	assert.Equal(t, []string{"execute:acceptOwnership", "execute:setData"}, labels[len(labels)-2:])
	for _, e := range stream.History() {
		assert.NotEqual(t, domain.FunctionSetDataBatch, e.FunctionName)
	}
}

func TestTransferOwnership_CommitSubmissionFailure(t *testing.T) {
	chain, uc, params := ownershipFixture(t, domain.Controller(controllerA))
	chain.sendErr = func(tx sentTx) error {
		if tx.Label == "transferOwnership" {
			return assert.AnError
		}
		return nil
	}

	state, err := uc.Run(context.Background(), params, usecase.NewEventStream("own-4"))
	require.Error(t, err)
	assert.Equal(t, domain.PhaseFailed, state.Phase())

	var phaseErr *domain.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, domain.PhaseCommitting, phaseErr.Phase)

	var submitErr *domain.SubmissionError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, domain.FunctionTransferOwnership, submitErr.Function)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"setDataBatch"}, chain.Labels())
}

func TestTransferOwnership_InvalidInputs(t *testing.T) {
	_, uc, params := ownershipFixture(t, domain.Controller(controllerA))
	ctx := context.Background()

	t.Run("missing account", func(t *testing.T) {
		p := params
		p.Account = common.Address{}
		_, err := uc.Run(ctx, p, usecase.NewEventStream("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("missing plan", func(t *testing.T) {
		p := params
		p.Plan = nil
		_, err := uc.Run(ctx, p, usecase.NewEventStream("x"))
		var seqErr *domain.SequencingError
		assert.ErrorAs(t, err, &seqErr)
	})

	t.Run("resume from terminal phase", func(t *testing.T) {
		p := params
		p.From = domain.PhaseDone
		state, err := uc.Run(ctx, p, usecase.NewEventStream("x"))
		var phaseErr *domain.PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, domain.PhaseDone, phaseErr.Phase)
		assert.Equal(t, domain.PhaseIdle, state.Phase())
	})
}
