package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/adapters/progress"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"deploy", "resume", "plan", "keys", "registry", "metadata", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	decode, _, err := root.Find([]string{"metadata", "decode"})
	require.NoError(t, err)
	assert.Equal(t, "decode", decode.Name())
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "pfactory version dev\n", out.String())
}

func TestBindGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	require.NoError(t, root.PersistentFlags().Parse([]string{"--network", "lukso-testnet", "--json"}))

	v := viper.New()
	bindGlobalFlags(v, root)

	assert.Equal(t, "lukso-testnet", v.GetString("network"))
	assert.True(t, v.GetBool("json"))
	assert.False(t, v.IsSet("rpc_url"))
	assert.False(t, v.IsSet("debug"))
}

func TestNewProgressSink(t *testing.T) {
	withProgress := &cobra.Command{Use: "deploy", Annotations: map[string]string{annotationProgress: "true"}}
	without := &cobra.Command{Use: "keys"}

	v := viper.New()
	assert.IsType(t, &progress.NopSink{}, newProgressSink(v, without))
	assert.IsType(t, &progress.SpinnerProgressReporter{}, newProgressSink(v, withProgress))

	v.Set("json", true)
	assert.IsType(t, &progress.JSONSink{}, newProgressSink(v, withProgress))
	assert.IsType(t, &progress.NopSink{}, newProgressSink(v, without))
}
