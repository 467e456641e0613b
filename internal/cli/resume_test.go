package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

func failedOwnership() *domain.DeploymentError {
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	manager := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	return &domain.DeploymentError{
		RunID: "run-1",
		Stage: "ownership",
		Deployed: domain.DeployedContractsResult{
			domain.ContractAccount:           {Address: account},
			domain.ContractPermissionManager: {Address: manager},
			domain.ContractDelegate:          {Address: common.HexToAddress("0x00000000000000000000000000000000000000c3")},
		},
		Err: errors.New("acceptOwnership reverted"),
		Ownership: &domain.OwnershipCheckpoint{
			Network:           "4201",
			Account:           account,
			PermissionManager: manager,
			Deployer:          common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
			Entries: []domain.DataEntry{
				{Key: domain.ControllersArrayKey, Value: domain.EncodeArrayLength(2), Label: "controllers[]"},
			},
			RevokeValue: []byte{},
			Phase:       domain.PhaseAccepting,
		},
	}
}

func TestCheckpointFile(t *testing.T) {
	dir := t.TempDir()
	failed := failedOwnership()

	path, err := saveCheckpoint(dir, failed)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pfactory-resume-run-1.json"), path)

	loaded, err := loadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, failed.RunID, loaded.RunID)
	assert.Equal(t, "ownership", loaded.Stage)
	assert.Equal(t, *failed.Ownership, *loaded.Ownership)
	require.Len(t, loaded.Deployed, 3)
	for name, c := range failed.Deployed {
		assert.Equal(t, c.Address, loaded.Deployed[name].Address, name)
	}
}

func TestCheckpointFile_Rejected(t *testing.T) {
	dir := t.TempDir()

	_, err := loadCheckpoint(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	done := failedOwnership()
	done.Ownership.Phase = domain.PhaseDone
	_, err = saveCheckpoint(dir, done)
	assert.ErrorIs(t, err, domain.ErrNotResumable)

	path := filepath.Join(dir, "done.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"runId":"x","ownership":{"phase":"DONE"}}`), 0o600))
	_, err = loadCheckpoint(path)
	assert.ErrorIs(t, err, domain.ErrNotResumable)
}

func TestReportCheckpoint(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	reportCheckpoint(&out, dir, errors.New("plain failure"))
	assert.Empty(t, out.String())

	reportCheckpoint(&out, dir, failedOwnership())
	assert.Contains(t, out.String(), "pfactory resume "+filepath.Join(dir, "pfactory-resume-run-1.json"))
	assert.FileExists(t, filepath.Join(dir, "pfactory-resume-run-1.json"))
}
