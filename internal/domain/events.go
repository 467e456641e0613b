package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKind tags a DeploymentEvent
type EventKind string

const (
	EventContractDeployment     EventKind = "CONTRACT"
	EventProxyDeployment        EventKind = "PROXY"
	EventBaseContractDeployment EventKind = "BASE_CONTRACT"
	EventTransaction            EventKind = "TRANSACTION"
	EventMetadataUpload         EventKind = "METADATA"
)

// EventStatus is the lifecycle state of the step an event describes
type EventStatus string

const (
	StatusPending  EventStatus = "PENDING"
	StatusComplete EventStatus = "COMPLETE"
)

// Function names used on deployment events
const (
	FunctionDeploy            = "deploy"
	FunctionInitialize        = "initialize"
	FunctionSetDataBatch      = "setDataBatch"
	FunctionTransferOwnership = "transferOwnership"
	FunctionAcceptOwnership   = "acceptOwnership"
	FunctionRevokeDeployer    = "setData"
	FunctionUpload            = "upload"
)

// DeploymentEvent is one unit of progress. Events are values: a Complete event
// is a new event, the Pending one is never modified.
type DeploymentEvent struct {
	RunID        string         `json:"runId"`
	Sequence     int            `json:"sequence"`
	Kind         EventKind      `json:"kind"`
	ContractName ContractName   `json:"contractName"`
	Status       EventStatus    `json:"status"`
	FunctionName string         `json:"functionName,omitempty"`
	Transaction  *PendingTx     `json:"transaction,omitempty"`
	Receipt      *types.Receipt `json:"receipt,omitempty"`
	Phase        OwnershipPhase `json:"phase,omitempty"`
	URL          string         `json:"url,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Complete derives the Complete event matching a Pending one
func (e DeploymentEvent) Complete(receipt *types.Receipt) DeploymentEvent {
	e.Status = StatusComplete
	e.Receipt = receipt
	e.Sequence = 0
	e.Timestamp = time.Time{}
	return e
}

// StepKey identifies the step an event belongs to, used for ordering checks
func (e DeploymentEvent) StepKey() string {
	return fmt.Sprintf("%s/%s/%s", e.ContractName, e.Kind, e.FunctionName)
}

// ContractAddress returns the address created by the event's transaction, if any
func (e DeploymentEvent) ContractAddress() (common.Address, bool) {
	if e.Receipt == nil || e.Receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, false
	}
	return e.Receipt.ContractAddress, true
}

// IsResultBearing reports whether the event contributes an entry to the final result
func (e DeploymentEvent) IsResultBearing() bool {
	if e.Status != StatusComplete {
		return false
	}
	if e.Kind != EventContractDeployment && e.Kind != EventProxyDeployment {
		return false
	}
	_, ok := e.ContractAddress()
	return ok
}

func (e DeploymentEvent) String() string {
	s := fmt.Sprintf("[%s] %s %s", e.Status, e.Kind, e.ContractName)
	if e.FunctionName != "" {
		s += "." + e.FunctionName
	}
	if e.Transaction != nil {
		s += " tx=" + e.Transaction.Hash.Hex()
	}
	if addr, ok := e.ContractAddress(); ok {
		s += " address=" + addr.Hex()
	}
	if e.URL != "" {
		s += " url=" + e.URL
	}
	return s
}
