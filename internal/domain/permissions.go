package domain

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Permission is the controller permission bitmask stored on the account
type Permission uint64

const (
	PermChangeOwner                     Permission = 1 << 0
	PermAddController                   Permission = 1 << 1
	PermEditPermissions                 Permission = 1 << 2
	PermAddExtensions                   Permission = 1 << 3
	PermChangeExtensions                Permission = 1 << 4
	PermAddUniversalReceiverDelegate    Permission = 1 << 5
	PermChangeUniversalReceiverDelegate Permission = 1 << 6
	PermReentrancy                      Permission = 1 << 7
	PermSuperTransferValue              Permission = 1 << 8
	PermTransferValue                   Permission = 1 << 9
	PermSuperCall                       Permission = 1 << 10
	PermCall                            Permission = 1 << 11
	PermSuperStaticCall                 Permission = 1 << 12
	PermStaticCall                      Permission = 1 << 13
	PermSuperDelegateCall               Permission = 1 << 14
	PermDelegateCall                    Permission = 1 << 15
	PermDeploy                          Permission = 1 << 16
	PermSuperSetData                    Permission = 1 << 17
	PermSetData                         Permission = 1 << 18
	PermEncrypt                         Permission = 1 << 19
	PermDecrypt                         Permission = 1 << 20
	PermSign                            Permission = 1 << 21
	PermExecuteRelayCall                Permission = 1 << 22
)

const (
	// DefaultControllerPermissions is granted to controllers given without explicit permissions.
	// Existing deployments depend on this exact value.
	DefaultControllerPermissions = PermChangeOwner | PermEditPermissions

	// DelegatePermissions is granted to the delegate contract
	DelegatePermissions = PermSetData | PermReentrancy

	// DeployerTemporaryPermissions is granted to the deploying key until the revoke phase
	DeployerTemporaryPermissions = PermChangeOwner | PermEditPermissions

	// NoPermissions marks a controller without any rights
	NoPermissions Permission = 0
)

var permissionNames = map[string]Permission{
	"CHANGEOWNER":                     PermChangeOwner,
	"ADDCONTROLLER":                   PermAddController,
	"EDITPERMISSIONS":                 PermEditPermissions,
	"ADDEXTENSIONS":                   PermAddExtensions,
	"CHANGEEXTENSIONS":                PermChangeExtensions,
	"ADDUNIVERSALRECEIVERDELEGATE":    PermAddUniversalReceiverDelegate,
	"CHANGEUNIVERSALRECEIVERDELEGATE": PermChangeUniversalReceiverDelegate,
	"REENTRANCY":                      PermReentrancy,
	"SUPER_TRANSFERVALUE":             PermSuperTransferValue,
	"TRANSFERVALUE":                   PermTransferValue,
	"SUPER_CALL":                      PermSuperCall,
	"CALL":                            PermCall,
	"SUPER_STATICCALL":                PermSuperStaticCall,
	"STATICCALL":                      PermStaticCall,
	"SUPER_DELEGATECALL":              PermSuperDelegateCall,
	"DELEGATECALL":                    PermDelegateCall,
	"DEPLOY":                          PermDeploy,
	"SUPER_SETDATA":                   PermSuperSetData,
	"SETDATA":                         PermSetData,
	"ENCRYPT":                         PermEncrypt,
	"DECRYPT":                         PermDecrypt,
	"SIGN":                            PermSign,
	"EXECUTE_RELAY_CALL":              PermExecuteRelayCall,
}

// ParsePermissions parses a comma separated list of permission names
func ParsePermissions(s string) (Permission, error) {
	var p Permission
	for _, part := range strings.Split(s, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		flag, ok := permissionNames[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPermission, part)
		}
		p |= flag
	}
	return p, nil
}

// Has reports whether all flags in other are set
func (p Permission) Has(other Permission) bool {
	return p&other == other
}

// Names returns the set flag names, ordered by bit position
func (p Permission) Names() []string {
	type named struct {
		name string
		flag Permission
	}
	var out []named
	for name, flag := range permissionNames {
		if p&flag != 0 {
			out = append(out, named{name, flag})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].flag < out[j].flag })
	names := make([]string, len(out))
	for i, n := range out {
		names[i] = n.name
	}
	return names
}

func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}
	return strings.Join(p.Names(), ",")
}

// Bytes32 encodes the bitmask as a 32 byte big-endian value
func (p Permission) Bytes32() []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(uint64(p)).Bytes(), 32)
}

// DecodePermission decodes a stored permission value. Empty means no permissions.
func DecodePermission(value []byte) (Permission, error) {
	if len(value) == 0 {
		return NoPermissions, nil
	}
	if len(value) != 32 {
		return 0, fmt.Errorf("permission value must be 32 bytes, got %d", len(value))
	}
	v := new(big.Int).SetBytes(value)
	if !v.IsUint64() {
		return 0, fmt.Errorf("permission value 0x%x has unknown high bits", value)
	}
	return Permission(v.Uint64()), nil
}
