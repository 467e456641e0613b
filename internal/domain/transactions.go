package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest is an unsigned transaction. A nil To deploys a contract.
// Gas zero means "estimate before submission".
type TxRequest struct {
	To    *common.Address `json:"to,omitempty"`
	Data  []byte          `json:"data"`
	Value *big.Int        `json:"value,omitempty"`
	Gas   uint64          `json:"gas,omitempty"`
}

// IsCreation reports whether the request deploys a contract
func (r TxRequest) IsCreation() bool {
	return r.To == nil
}

// PendingTx is a broadcast transaction awaiting confirmation
type PendingTx struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Nonce uint64          `json:"nonce"`
	Gas   uint64          `json:"gas"`

	// Tx is the signed transaction when the signer exposes it
	Tx *types.Transaction `json:"-"`
}

// OwnershipPhase is a state of the ownership transfer sequence
type OwnershipPhase string

const (
	PhaseIdle       OwnershipPhase = "IDLE"
	PhaseCommitting OwnershipPhase = "COMMITTING"
	PhaseAccepting  OwnershipPhase = "ACCEPTING"
	PhaseRevoking   OwnershipPhase = "REVOKING"
	PhaseDone       OwnershipPhase = "DONE"
	PhaseFailed     OwnershipPhase = "FAILED"
)

// OwnershipCheckpoint holds what an interrupted ownership transfer needs to be
// retried from the phase that failed.
type OwnershipCheckpoint struct {
	Network           string         `json:"network,omitempty"`
	Account           common.Address `json:"account"`
	PermissionManager common.Address `json:"permissionManager"`
	Deployer          common.Address `json:"deployer"`
	Entries           []DataEntry    `json:"entries"`
	RevokeValue       hexutil.Bytes  `json:"revokeValue"`
	// Phase is the first phase to run on retry
	Phase OwnershipPhase `json:"phase"`
}

// Resumable reports whether the checkpoint names a phase that can be retried
func (c *OwnershipCheckpoint) Resumable() bool {
	if c == nil {
		return false
	}
	switch c.Phase {
	case PhaseCommitting, PhaseAccepting, PhaseRevoking:
		return true
	}
	return false
}

// DeployedContract is one entry of the final result
type DeployedContract struct {
	Address common.Address `json:"address"`
	Receipt *types.Receipt `json:"receipt"`
}

// DeployedContractsResult maps logical contract names to their deployed instance
type DeployedContractsResult map[ContractName]DeployedContract

// Clone returns a shallow copy of the result map
func (r DeployedContractsResult) Clone() DeployedContractsResult {
	out := make(DeployedContractsResult, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Address returns the address of a deployed contract, if present
func (r DeployedContractsResult) Address(name ContractName) (common.Address, bool) {
	c, ok := r[name]
	return c.Address, ok
}
