package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrUnresolvedContract is returned when a contract has no deployment mode after resolution
	ErrUnresolvedContract = errors.New("unresolved contract")

	// ErrUnknownPermission is returned for permission names outside the known set
	ErrUnknownPermission = errors.New("unknown permission")

	// ErrNoControllers is returned when a deployment has no controller
	ErrNoControllers = errors.New("at least one controller is required")

	// ErrDuplicateController is returned when the same address is listed twice
	ErrDuplicateController = errors.New("duplicate controller")

	// ErrInvalidFileType is returned for assets whose content type is not accepted
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrInvalidMetadata is returned for metadata values that cannot be decoded
	ErrInvalidMetadata = errors.New("invalid metadata")

	// ErrHashMismatch is returned when fetched content does not match its recorded hash
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrUnknownNetwork is returned when the registry has no entry for a network
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrNonceConflict is returned when the node rejects a nonce already used by this key
	ErrNonceConflict = errors.New("nonce conflict")

	// ErrMissingBytecode is returned when a fresh deployment has no bytecode to deploy
	ErrMissingBytecode = errors.New("missing bytecode")

	// ErrNotResumable is returned when a failed run cannot be continued
	ErrNotResumable = errors.New("deployment cannot be resumed")

	// ErrTooLarge is returned when a document or on-chain array exceeds its size limit
	ErrTooLarge = errors.New("too large")
)

// ResolutionError is returned when a base contract cannot be resolved
type ResolutionError struct {
	Contract ContractName
	Network  string
	Version  string
	Address  *common.Address
	Reason   string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot resolve %s", e.Contract)
	if e.Network != "" {
		fmt.Fprintf(&b, " on %s", e.Network)
	}
	if e.Version != "" {
		fmt.Fprintf(&b, " version %s", e.Version)
	}
	if e.Address != nil {
		fmt.Fprintf(&b, " at %s", e.Address.Hex())
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// SubmissionError is returned when a transaction is rejected before it is mined
type SubmissionError struct {
	Contract ContractName
	Function string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s.%s: %v", e.Contract, e.Function, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationError is returned when a transaction reverts or its receipt never arrives
type ConfirmationError struct {
	Contract ContractName
	Function string
	TxHash   common.Hash
	Reverted bool
	Err      error
}

func (e *ConfirmationError) Error() string {
	if e.Reverted {
		return fmt.Sprintf("%s.%s reverted in tx %s", e.Contract, e.Function, e.TxHash.Hex())
	}
	return fmt.Sprintf("confirm %s.%s tx %s: %v", e.Contract, e.Function, e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// UploadError is returned when an asset or the metadata document fails to upload
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SequencingError is returned when a step cannot run because the output of an
// earlier step, typically a contract address, is missing
type SequencingError struct {
	Step string
	Err  error
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("cannot run %s: %v", e.Step, e.Err)
}

func (e *SequencingError) Unwrap() error { return e.Err }

// PhaseError reports which ownership phase failed
type PhaseError struct {
	Phase OwnershipPhase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("ownership phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// DeploymentError is the terminal error of a deployment run. It keeps what was
// deployed before the failure so callers can resume or clean up.
type DeploymentError struct {
	RunID    string
	Stage    string
	Deployed DeployedContractsResult
	Err      error

	// Ownership is set when the run stopped inside the ownership transfer
	Ownership *OwnershipCheckpoint
}

func (e *DeploymentError) Error() string {
	if len(e.Deployed) == 0 {
		return fmt.Sprintf("deployment %s failed during %s: %v", e.RunID, e.Stage, e.Err)
	}
	parts := make([]string, 0, len(e.Deployed))
	for _, name := range AllContracts {
		if c, ok := e.Deployed[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", name, c.Address.Hex()))
		}
	}
	return fmt.Sprintf("deployment %s failed during %s (deployed: %s): %v",
		e.RunID, e.Stage, strings.Join(parts, ", "), e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }
