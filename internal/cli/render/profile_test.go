package render

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

func init() {
	color.NoColor = true
}

var (
	account  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	delegate = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func TestRenderResolved(t *testing.T) {
	var out bytes.Buffer
	NewProfileRenderer(&out).RenderResolved("lukso-testnet", domain.ResolvedBaseContracts{
		domain.ContractAccount: {
			Name: domain.ContractAccount, Mode: domain.ModeProxy, Source: domain.SourceRegistryDefault,
			Version: "0.14.0", Address: account,
		},
		domain.ContractDelegate: {
			Name: domain.ContractDelegate, Mode: domain.ModeBaseAndProxy, Source: domain.SourceFresh,
			Bytecode: []byte{1, 2, 3}, Downgraded: true,
		},
	})

	s := out.String()
	assert.Contains(t, s, "lukso-testnet")
	assert.Contains(t, s, "Proxy")
	assert.Contains(t, s, "Base And Proxy")
	assert.Contains(t, s, account.Hex())
	assert.Contains(t, s, "3 bytes of bytecode")
	assert.Contains(t, s, "registry address has no code")
}

func TestRenderPlan(t *testing.T) {
	plan, err := usecase.BuildPermissionPlan(usecase.PermissionPlanParams{
		Account:     account,
		Delegate:    delegate,
		Deployer:    alice,
		Controllers: []domain.ControllerSpec{domain.ControllerWithPermissions(alice, domain.PermSetData)},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	NewProfileRenderer(&out).RenderPlan(plan)

	s := out.String()
	assert.Contains(t, s, "Storage entries (6)")
	assert.Contains(t, s, "permissions:delegate")
	assert.Contains(t, s, "controllers[1]:delegate")
	assert.Contains(t, s, ":deployer")
	assert.Contains(t, s, "is reset to: SETDATA")
}

func TestRenderResult(t *testing.T) {
	var out bytes.Buffer
	NewProfileRenderer(&out).RenderResult(domain.DeployedContractsResult{
		domain.ContractAccount: {
			Address: account,
			Receipt: &types.Receipt{BlockNumber: big.NewInt(42), TxHash: common.HexToHash("0xbeef")},
		},
	})

	s := out.String()
	assert.Contains(t, s, "Profile deployed")
	assert.Contains(t, s, account.Hex())
	assert.Contains(t, s, "42")
	assert.NotContains(t, s, string(domain.ContractDelegate))
}

func TestRenderKeys(t *testing.T) {
	var out bytes.Buffer
	NewProfileRenderer(&out).RenderKeys([]common.Address{alice})

	s := out.String()
	assert.Contains(t, s, domain.MetadataKey.Hex())
	assert.Contains(t, s, domain.ControllerElementKey(0).Hex())
	assert.Contains(t, s, domain.PermissionKey(alice).Hex())
}

func TestRenderRegistry(t *testing.T) {
	reg := domain.NewVersionRegistry(map[string]map[domain.ContractName]domain.ContractVersions{
		"4201": {
			domain.ContractAccount: {
				DefaultVersion: "0.14.0",
				Proxy:          true,
				Versions: map[string]common.Address{
					"0.12.1": delegate,
					"0.14.0": account,
				},
			},
		},
	})

	var out bytes.Buffer
	NewProfileRenderer(&out).RenderRegistry(reg, func(id string) string {
		if id == "4201" {
			return "lukso-testnet"
		}
		return ""
	})

	s := out.String()
	assert.Contains(t, s, "lukso-testnet (4201)")
	assert.Contains(t, s, "0.12.1")
	assert.Contains(t, s, "default, proxy")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Base And Proxy", titleCase(string(domain.ModeBaseAndProxy)))
	assert.Equal(t, "Standalone", titleCase(string(domain.ModeStandalone)))
}

func TestShortHex(t *testing.T) {
	assert.Equal(t, "0x1234", shortHex("0x1234", 4))
	assert.Equal(t, "0x1234…cdef", shortHex("0x1234567890abcdef", 4))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ No network selected", FormatError(errors.New("no network selected")))

	err := fmt.Errorf("deploy: %w", &domain.DeploymentError{
		RunID: "run",
		Stage: "ownership",
		Err:   errors.New("accept ownership reverted"),
	})
	assert.Equal(t, "❌ Ownership failed: accept ownership reverted", FormatError(err))
}
