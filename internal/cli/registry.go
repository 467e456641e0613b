package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
)

// NewRegistryCmd creates the registry command
func NewRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "List the known base contract versions per network",
		Long: `List the base contract addresses of the version registry: the embedded defaults
merged with the registry file configured in pfactory.toml, if any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			reg, err := app.Registry.Registry(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(reg)
			}
			render.NewProfileRenderer(cmd.OutOrStdout()).RenderRegistry(reg, app.Registry.NetworkName)
			return nil
		},
	}
}
