package usecase

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// PermissionPlanParams contains the inputs of the permission plan
type PermissionPlanParams struct {
	Account     common.Address
	Delegate    common.Address
	Deployer    common.Address
	Controllers []domain.ControllerSpec
	// Metadata is the encoded metadata value; nil means no metadata entry
	Metadata []byte
}

// PermissionPlan is the ordered set of writes of the commit phase together with
// what the revoke phase writes back for the deployer.
type PermissionPlan struct {
	Entries              []domain.DataEntry
	Deployer             common.Address
	DeployerIsController bool
	// RevokeValue is the deployer's final permission value; empty when it is not a controller
	RevokeValue []byte
}

// Keys returns the entry keys in plan order
func (p *PermissionPlan) Keys() []common.Hash {
	return lo.Map(p.Entries, func(e domain.DataEntry, _ int) common.Hash { return e.Key })
}

// Value returns the value planned for key
func (p *PermissionPlan) Value(key common.Hash) ([]byte, bool) {
	e, ok := lo.Find(p.Entries, func(e domain.DataEntry) bool { return e.Key == key })
	return e.Value, ok
}

// BuildPermissionPlan computes the storage writes linking the delegate, the controllers
// and the metadata to the account. It performs no I/O.
func BuildPermissionPlan(params PermissionPlanParams) (*PermissionPlan, error) {
	if err := domain.ValidateControllers(params.Controllers); err != nil {
		return nil, err
	}
	if params.Account == (common.Address{}) {
		return nil, fmt.Errorf("%w: account address is not known", domain.ErrInvalidAddress)
	}
	if params.Delegate == (common.Address{}) {
		return nil, fmt.Errorf("%w: delegate address is not known", domain.ErrInvalidAddress)
	}
	if lo.ContainsBy(params.Controllers, func(c domain.ControllerSpec) bool { return c.Address == params.Delegate }) {
		return nil, fmt.Errorf("%w: the delegate %s cannot also be a controller", domain.ErrDuplicateController, params.Delegate.Hex())
	}

	n := uint64(len(params.Controllers))
	entries := make([]domain.DataEntry, 0, 2*len(params.Controllers)+6)

	entries = append(entries,
		domain.DataEntry{
			Key:   domain.DelegateKey,
			Value: params.Delegate.Bytes(),
			Label: "delegate",
		},
		domain.DataEntry{
			Key:   domain.PermissionKey(params.Delegate),
			Value: domain.DelegatePermissions.Bytes32(),
			Label: "permissions:delegate",
		},
		domain.DataEntry{
			Key:   domain.ControllersArrayKey,
			Value: domain.EncodeArrayLength(n + 1),
			Label: "controllers:length",
		},
	)

	for i, c := range params.Controllers {
		entries = append(entries, domain.DataEntry{
			Key:   domain.ControllerElementKey(uint64(i)),
			Value: c.Address.Bytes(),
			Label: fmt.Sprintf("controllers[%d]", i),
		})
	}
	entries = append(entries, domain.DataEntry{
		Key:   domain.ControllerElementKey(n),
		Value: params.Delegate.Bytes(),
		Label: fmt.Sprintf("controllers[%d]:delegate", n),
	})

	plan := &PermissionPlan{Deployer: params.Deployer, RevokeValue: []byte{}}
	for _, c := range params.Controllers {
		perms := c.EffectivePermissions()
		label := "permissions:" + c.Address.Hex()
		if c.Address == params.Deployer {
			plan.DeployerIsController = true
			plan.RevokeValue = perms.Bytes32()
			perms = domain.DeployerTemporaryPermissions
			label += ":deployer"
		}
		entries = append(entries, domain.DataEntry{
			Key:   domain.PermissionKey(c.Address),
			Value: perms.Bytes32(),
			Label: label,
		})
	}
	if !plan.DeployerIsController {
		entries = append(entries, domain.DataEntry{
			Key:   domain.PermissionKey(params.Deployer),
			Value: domain.DeployerTemporaryPermissions.Bytes32(),
			Label: "permissions:deployer",
		})
	}

	if params.Metadata != nil {
		entries = append(entries, domain.DataEntry{
			Key:   domain.MetadataKey,
			Value: params.Metadata,
			Label: "metadata",
		})
	}

	plan.Entries = entries
	return plan, nil
}
