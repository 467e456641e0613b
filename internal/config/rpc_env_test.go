package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

func TestDetectEnvVar(t *testing.T) {
	tests := []struct {
		name       string
		rawValue   string
		wantEnvVar string
		wantIsVar  bool
	}{
		{
			name:       "simple env var",
			rawValue:   "${LUKSO_RPC_URL}",
			wantEnvVar: "LUKSO_RPC_URL",
			wantIsVar:  true,
		},
		{
			name:       "env var with underscores",
			rawValue:   "${LUKSO_TESTNET_RPC_URL}",
			wantEnvVar: "LUKSO_TESTNET_RPC_URL",
			wantIsVar:  true,
		},
		{
			name:       "hardcoded URL",
			rawValue:   "https://rpc.mainnet.lukso.network",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "env var with path suffix",
			rawValue:   "${MY_VAR}/path",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "empty string",
			rawValue:   "",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "localhost URL",
			rawValue:   "http://localhost:8545",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "env var starting with underscore",
			rawValue:   "${_MY_VAR}",
			wantEnvVar: "_MY_VAR",
			wantIsVar:  true,
		},
		{
			name:       "partial env var syntax - missing closing brace",
			rawValue:   "${UNCLOSED",
			wantEnvVar: "",
			wantIsVar:  false,
		},
		{
			name:       "dollar without braces",
			rawValue:   "$MY_VAR",
			wantEnvVar: "",
			wantIsVar:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envVar, isVar := DetectEnvVar(tt.rawValue)
			assert.Equal(t, tt.wantEnvVar, envVar)
			assert.Equal(t, tt.wantIsVar, isVar)
		})
	}
}

func TestGenerateEnvVarName(t *testing.T) {
	tests := []struct {
		name        string
		networkName string
		want        string
	}{
		{
			name:        "simple network",
			networkName: "lukso",
			want:        "LUKSO_RPC_URL",
		},
		{
			name:        "network with dash",
			networkName: "lukso-testnet",
			want:        "LUKSO_TESTNET_RPC_URL",
		},
		{
			name:        "network with number and dash",
			networkName: "anvil-31337",
			want:        "ANVIL_31337_RPC_URL",
		},
		{
			name:        "already uppercase",
			networkName: "MAINNET",
			want:        "MAINNET_RPC_URL",
		},
		{
			name:        "mixed case with dash",
			networkName: "Base-Sepolia",
			want:        "BASE_SEPOLIA_RPC_URL",
		},
		{
			name:        "network with dot",
			networkName: "polygon.zkevm",
			want:        "POLYGON_ZKEVM_RPC_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateEnvVarName(tt.networkName)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckRPCReference(t *testing.T) {
	t.Setenv("PF_SET_RPC", "http://127.0.0.1:8545")

	assert.NoError(t, checkRPCReference("devnet", "${PF_SET_RPC}"))
	assert.NoError(t, checkRPCReference("devnet", "http://localhost:8545"))
	assert.NoError(t, checkRPCReference("devnet", "${PF_UNSET_RPC}/v1"), "only bare references are checked")

	err := checkRPCReference("devnet", "${PF_UNSET_RPC}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PF_UNSET_RPC")
}

func TestApplyRPCEnv(t *testing.T) {
	n := &config.Network{Name: "lukso-testnet", RPCURL: "https://rpc.testnet.lukso.network"}
	applyRPCEnv(n)
	assert.Equal(t, "https://rpc.testnet.lukso.network", n.RPCURL)

	t.Setenv("LUKSO_TESTNET_RPC_URL", "https://private.example/rpc")
	applyRPCEnv(n)
	assert.Equal(t, "https://private.example/rpc", n.RPCURL)

	applyRPCEnv(nil)
}

func TestProvider_RPCFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LUKSO_RPC_URL", "https://archive.example/lukso")

	v := SetupViper(dir)
	v.Set("network", "lukso")
	cfg, err := Provider(v)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example/lukso", cfg.Network.RPCURL)
	assert.Contains(t, cfg.Networks, "lukso-testnet")

	// the flag still wins
	v.Set("rpc_url", "http://127.0.0.1:8545")
	cfg, err = Provider(v)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", cfg.Network.RPCURL)
}

func TestProvider_UnsetRPCReference(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, ConfigFileName, "[networks.devnet]\nrpc_url = \"${PF_MISSING_RPC}\"\nchain_id = 1337\n")

	_, err := Provider(SetupViper(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PF_MISSING_RPC")
}
