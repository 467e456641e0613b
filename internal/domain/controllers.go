package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ControllerSpec is an address that will be allowed to act on the account.
// A nil Permissions field means the default permission set.
type ControllerSpec struct {
	Address     common.Address `json:"address"`
	Permissions *Permission    `json:"permissions,omitempty"`
}

// Controller returns a controller receiving the default permissions
func Controller(addr common.Address) ControllerSpec {
	return ControllerSpec{Address: addr}
}

// ControllerWithPermissions returns a controller with explicit permissions
func ControllerWithPermissions(addr common.Address, perms Permission) ControllerSpec {
	return ControllerSpec{Address: addr, Permissions: &perms}
}

// EffectivePermissions returns the explicit permissions or the default set
func (c ControllerSpec) EffectivePermissions() Permission {
	if c.Permissions != nil {
		return *c.Permissions
	}
	return DefaultControllerPermissions
}

// ParseControllerSpec parses "0xaddr" or "0xaddr:PERM,PERM"
func ParseControllerSpec(s string) (ControllerSpec, error) {
	addrPart, permPart, hasPerms := strings.Cut(strings.TrimSpace(s), ":")
	if !common.IsHexAddress(addrPart) {
		return ControllerSpec{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addrPart)
	}
	addr := common.HexToAddress(addrPart)
	if !hasPerms {
		return Controller(addr), nil
	}
	perms, err := ParsePermissions(permPart)
	if err != nil {
		return ControllerSpec{}, err
	}
	return ControllerWithPermissions(addr, perms), nil
}

// ValidateControllers checks the list is non-empty and free of duplicates and zero addresses
func ValidateControllers(controllers []ControllerSpec) error {
	if len(controllers) == 0 {
		return ErrNoControllers
	}
	seen := make(map[common.Address]int, len(controllers))
	for i, c := range controllers {
		if c.Address == (common.Address{}) {
			return fmt.Errorf("%w: controller %d is the zero address", ErrInvalidAddress, i)
		}
		if j, dup := seen[c.Address]; dup {
			return fmt.Errorf("%w: %s at index %d and %d", ErrDuplicateController, c.Address.Hex(), j, i)
		}
		seen[c.Address] = i
	}
	return nil
}
