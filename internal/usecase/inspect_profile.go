package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// MaxControllers bounds the controller array read back from an account
const MaxControllers = 1024

// ControllerState is a controller as read back from the account
type ControllerState struct {
	Address     common.Address
	Permissions domain.Permission
}

// ProfileState is the linked state of a deployed account
type ProfileState struct {
	Account     common.Address
	Delegate    common.Address
	Controllers []ControllerState
	Metadata    []byte
}

// InspectProfile reads the delegate, controllers and metadata keys of an account
type InspectProfile struct {
	reader DataReader
}

// NewInspectProfile creates a new InspectProfile use case
func NewInspectProfile(reader DataReader) *InspectProfile {
	return &InspectProfile{reader: reader}
}

// Run reads the state of account
func (uc *InspectProfile) Run(ctx context.Context, account common.Address) (*ProfileState, error) {
	state := &ProfileState{Account: account}

	delegate, err := uc.reader.GetData(ctx, account, domain.DelegateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read delegate: %w", err)
	}
	if len(delegate) > 0 {
		state.Delegate = common.BytesToAddress(delegate)
	}

	rawLength, err := uc.reader.GetData(ctx, account, domain.ControllersArrayKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read controller count: %w", err)
	}
	length, err := domain.DecodeArrayLength(rawLength)
	if err != nil {
		return nil, err
	}
	if length > MaxControllers {
		return nil, fmt.Errorf("controller array of %d entries: %w (limit %d)", length, domain.ErrTooLarge, MaxControllers)
	}

	for i := uint64(0); i < length; i++ {
		raw, err := uc.reader.GetData(ctx, account, domain.ControllerElementKey(i))
		if err != nil {
			return nil, fmt.Errorf("failed to read controller %d: %w", i, err)
		}
		if len(raw) != common.AddressLength && len(raw) != common.HashLength {
			return nil, fmt.Errorf("controller %d: unexpected value of %d bytes", i, len(raw))
		}
		addr := common.BytesToAddress(raw)

		rawPerms, err := uc.reader.GetData(ctx, account, domain.PermissionKey(addr))
		if err != nil {
			return nil, fmt.Errorf("failed to read permissions of %s: %w", addr.Hex(), err)
		}
		perms, err := domain.DecodePermission(rawPerms)
		if err != nil {
			return nil, fmt.Errorf("permissions of %s: %w", addr.Hex(), err)
		}
		state.Controllers = append(state.Controllers, ControllerState{Address: addr, Permissions: perms})
	}

	if state.Metadata, err = uc.reader.GetData(ctx, account, domain.MetadataKey); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return state, nil
}
