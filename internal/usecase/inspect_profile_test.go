package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// storageReader serves fixed values and counts reads
type storageReader struct {
	values map[common.Hash][]byte
	reads  int
	err    error
}

func (r *storageReader) GetData(_ context.Context, _ common.Address, key common.Hash) ([]byte, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.values[key], nil
}

func TestInspectProfile_Run(t *testing.T) {
	delegate := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	reader := &storageReader{values: map[common.Hash][]byte{
		domain.DelegateKey:                delegate.Bytes(),
		domain.ControllersArrayKey:        domain.EncodeArrayLength(1),
		domain.ControllerElementKey(0):    controllerA.Bytes(),
		domain.PermissionKey(controllerA): domain.DefaultControllerPermissions.Bytes32(),
		domain.MetadataKey:                []byte{0x00, 0x6f},
	}}

	state, err := usecase.NewInspectProfile(reader).Run(context.Background(), controllerB)
	require.NoError(t, err)
	assert.Equal(t, controllerB, state.Account)
	assert.Equal(t, delegate, state.Delegate)
	assert.Equal(t, []usecase.ControllerState{
		{Address: controllerA, Permissions: domain.DefaultControllerPermissions},
	}, state.Controllers)
	assert.Equal(t, []byte{0x00, 0x6f}, state.Metadata)
}

func TestInspectProfile_RejectsOversizedControllerArray(t *testing.T) {
	reader := &storageReader{values: map[common.Hash][]byte{
		domain.ControllersArrayKey: domain.EncodeArrayLength(1 << 40),
	}}

	_, err := usecase.NewInspectProfile(reader).Run(context.Background(), controllerA)
	assert.ErrorIs(t, err, domain.ErrTooLarge)
	assert.Equal(t, 2, reader.reads, "no element is read")

	reader.values[domain.ControllersArrayKey] = domain.EncodeArrayLength(usecase.MaxControllers + 1)
	_, err = usecase.NewInspectProfile(reader).Run(context.Background(), controllerA)
	assert.ErrorIs(t, err, domain.ErrTooLarge)
}

func TestInspectProfile_ReadError(t *testing.T) {
	boom := errors.New("rpc down")
	_, err := usecase.NewInspectProfile(&storageReader{err: boom}).Run(context.Background(), controllerA)
	assert.ErrorIs(t, err, boom)
}
