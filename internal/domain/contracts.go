package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ContractName identifies one of the three logical contracts of a profile
type ContractName string

const (
	// ContractAccount is the identity contract holding the key-value store
	ContractAccount ContractName = "Account"
	// ContractPermissionManager gates calls to the account behind controller permissions
	ContractPermissionManager ContractName = "PermissionManager"
	// ContractDelegate reacts to incoming asset and notification calls
	ContractDelegate ContractName = "Delegate"
)

// AllContracts lists the logical contracts in deployment order
var AllContracts = []ContractName{
	ContractAccount,
	ContractPermissionManager,
	ContractDelegate,
}

// ParseContractName accepts the canonical name or a kebab/lower-case alias
func ParseContractName(s string) (ContractName, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "account", "profile", "erc725account":
		return ContractAccount, nil
	case "permissionmanager", "keymanager":
		return ContractPermissionManager, nil
	case "delegate", "receiverdelegate", "universalreceiverdelegate":
		return ContractDelegate, nil
	}
	return "", fmt.Errorf("unknown contract %q", s)
}

// ContractOverride is the caller supplied override record for one logical contract.
// Zero values mean "not specified".
type ContractOverride struct {
	Version        string          `json:"version,omitempty"`
	Bytecode       []byte          `json:"bytecode,omitempty"`
	LibraryAddress *common.Address `json:"libraryAddress,omitempty"`
	DeployAsProxy  *bool           `json:"deployAsProxy,omitempty"`
}

// IsZero reports whether no field of the override is set
func (o ContractOverride) IsZero() bool {
	return o.Version == "" && len(o.Bytecode) == 0 && o.LibraryAddress == nil && o.DeployAsProxy == nil
}

// DeploymentConfiguration carries one override per logical contract.
// It is immutable for the duration of a deployment call.
type DeploymentConfiguration struct {
	Account           ContractOverride `json:"account"`
	PermissionManager ContractOverride `json:"permissionManager"`
	Delegate          ContractOverride `json:"delegate"`
}

// Override returns the override record for the given contract
func (c DeploymentConfiguration) Override(name ContractName) ContractOverride {
	switch name {
	case ContractAccount:
		return c.Account
	case ContractPermissionManager:
		return c.PermissionManager
	case ContractDelegate:
		return c.Delegate
	}
	return ContractOverride{}
}

// WithOverride returns a copy of the configuration with the override for name replaced
func (c DeploymentConfiguration) WithOverride(name ContractName, o ContractOverride) DeploymentConfiguration {
	switch name {
	case ContractAccount:
		c.Account = o
	case ContractPermissionManager:
		c.PermissionManager = o
	case ContractDelegate:
		c.Delegate = o
	}
	return c
}

// DeploymentMode says how a logical contract gets onto the chain
type DeploymentMode string

const (
	// ModeProxy attaches a minimal proxy to an existing logic contract and initializes it
	ModeProxy DeploymentMode = "PROXY"
	// ModeStandalone deploys the full bytecode with constructor arguments, no initialize call
	ModeStandalone DeploymentMode = "STANDALONE"
	// ModeBaseAndProxy deploys a fresh logic contract, then proxies it
	ModeBaseAndProxy DeploymentMode = "BASE_AND_PROXY"
)

// ResolutionSource records which rule of the resolver produced the result
type ResolutionSource string

const (
	SourceOverrideAddress  ResolutionSource = "override-address"
	SourceOverrideBytecode ResolutionSource = "override-bytecode"
	SourceRegistryVersion  ResolutionSource = "registry-version"
	SourceRegistryDefault  ResolutionSource = "registry-default"
	SourceFresh            ResolutionSource = "fresh"
)

// ResolvedBaseContract is the resolver's decision for a single logical contract
type ResolvedBaseContract struct {
	Name     ContractName     `json:"name"`
	Mode     DeploymentMode   `json:"mode"`
	Source   ResolutionSource `json:"source"`
	Version  string           `json:"version,omitempty"`
	Address  common.Address   `json:"address"`            // logic address for ModeProxy
	Bytecode []byte           `json:"bytecode,omitempty"` // creation code for ModeStandalone and ModeBaseAndProxy
	// Downgraded is set when a registry address had no code and the resolver fell back to a fresh deploy
	Downgraded bool `json:"downgraded,omitempty"`
}

// UsesProxy reports whether the contract ends up behind a proxy
func (r ResolvedBaseContract) UsesProxy() bool {
	return r.Mode == ModeProxy || r.Mode == ModeBaseAndProxy
}

// ResolvedBaseContracts maps every logical contract to its resolved base
type ResolvedBaseContracts map[ContractName]ResolvedBaseContract

// Validate checks that every logical contract has exactly one usable resolution
func (r ResolvedBaseContracts) Validate() error {
	for _, name := range AllContracts {
		rc, ok := r[name]
		if !ok {
			return fmt.Errorf("%w: no resolution for %s", ErrUnresolvedContract, name)
		}
		switch rc.Mode {
		case ModeProxy:
			if rc.Address == (common.Address{}) {
				return fmt.Errorf("%w: %s resolved to proxy without logic address", ErrUnresolvedContract, name)
			}
		case ModeStandalone, ModeBaseAndProxy:
			if len(rc.Bytecode) == 0 {
				return fmt.Errorf("%w: %s has no bytecode to deploy", ErrUnresolvedContract, name)
			}
		default:
			return fmt.Errorf("%w: %s has unknown mode %q", ErrUnresolvedContract, name, rc.Mode)
		}
	}
	return nil
}
