package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

func TestResolver_ResolveNetwork(t *testing.T) {
	r := NewResolver()
	r.LoadNetworks(map[string]config.Network{
		"devnet": {RPCURL: "http://10.0.0.1:8545", ChainID: 1337},
		"lukso":  {RPCURL: "https://my-node.example"},
	})

	tests := []struct {
		name    string
		input   string
		want    *config.Network
		wantErr error
		hint    string
	}{
		{
			name:  "by name",
			input: "lukso-testnet",
			want:  &config.Network{Name: "lukso-testnet", RPCURL: "https://rpc.testnet.lukso.network", ChainID: 4201},
		},
		{
			name:  "case insensitive",
			input: "DevNet",
			want:  &config.Network{Name: "devnet", RPCURL: "http://10.0.0.1:8545", ChainID: 1337},
		},
		{
			name:  "config overrides rpc and keeps chain id",
			input: "42",
			want:  &config.Network{Name: "lukso", RPCURL: "https://my-node.example", ChainID: 42},
		},
		{
			name:  "raw rpc url",
			input: "https://rpc.example",
			want:  &config.Network{Name: "custom", RPCURL: "https://rpc.example"},
		},
		{
			name:    "unknown chain id",
			input:   "999",
			wantErr: domain.ErrUnknownNetwork,
		},
		{
			name:    "typo gets a suggestion",
			input:   "lukso-tstnet",
			wantErr: domain.ErrUnknownNetwork,
			hint:    "did you mean lukso-testnet?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveNetwork(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.hint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ReturnsCopies(t *testing.T) {
	r := NewResolver()
	n, err := r.ResolveNetwork("lukso")
	require.NoError(t, err)
	n.RPCURL = "mutated"

	again, err := r.ResolveNetwork("lukso")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.mainnet.lukso.network", again.RPCURL)
}
