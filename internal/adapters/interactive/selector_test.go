package interactive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

func TestFuzzySearch(t *testing.T) {
	items := []string{"lukso", "lukso-testnet", "localhost", "anvil"}
	search := createFuzzySearchFunc(items)

	tests := []struct {
		input string
		want  []string
	}{
		{"", items},
		{"test", []string{"lukso-testnet"}},
		{"LUK", []string{"lukso", "lukso-testnet"}},
		{"lkt", []string{"lukso-testnet"}},
		{"anv", []string{"anvil"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got []string
			for i, item := range items {
				if search(tt.input, i) {
					got = append(got, item)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectNetwork_WithoutPrompt(t *testing.T) {
	ctx := context.Background()

	s := NewSelectorAdapter(&config.RuntimeConfig{})
	name, err := s.SelectNetwork(ctx, []string{"lukso"}, "Network")
	require.NoError(t, err)
	assert.Equal(t, "lukso", name)

	_, err = s.SelectNetwork(ctx, nil, "Network")
	assert.Error(t, err)

	nonInteractive := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	_, err = nonInteractive.SelectNetwork(ctx, []string{"lukso", "anvil"}, "Network")
	assert.Error(t, err)

	ok, err := nonInteractive.Confirm("Deploy profile")
	require.NoError(t, err)
	assert.True(t, ok)
}
