package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		controllers []string
		yes         bool
		verify      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new account with its permission manager and delegate",
		Long: `Deploy an account, its permission manager and its receiver delegate, upload the
profile metadata, write the controllers' permissions and transfer ownership of the
account to the permission manager.

Base contracts come from the version registry of the network unless overridden.

Examples:
  pfactory deploy -n lukso-testnet --controller 0xabc...
  pfactory deploy -n lukso-testnet --controller 0xabc...:CHANGEOWNER,SETDATA --metadata profile.json
  pfactory deploy -n 4201 --controller 0xabc... --account-version 0.12.1 --delegate-proxy=false`,
		Annotations: map[string]string{annotationProgress: "true"},
		Args:        cobra.NoArgs,
	}

	cmd.Flags().StringArrayVarP(&controllers, "controller", "c", nil, "Controller as 0xADDRESS[:PERMISSION,...] (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&verify, "verify", false, "Read the account back after deployment")
	overrides := addOverrideFlags(cmd.Flags())
	metadata := addMetadataFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer stopProgress(cmd)

		app, err := getApp(cmd)
		if err != nil {
			return err
		}
		if app.Config.Network == nil {
			if app.Config.NonInteractive || app.Config.JSON {
				return fmt.Errorf("no network selected, use --network")
			}
			name, err := app.Selector.SelectNetwork(cmd.Context(), app.Config.Networks, "Select network")
			if err != nil {
				return err
			}
			if v, ok := cmd.Context().Value(viperKey).(*viper.Viper); ok {
				v.Set("network", name)
			}
		}

		specs, err := parseControllers(controllers)
		if err != nil {
			return err
		}
		if err := domain.ValidateControllers(specs); err != nil {
			return err
		}
		configuration, err := overrides.configuration(cmd.Flags())
		if err != nil {
			return err
		}
		source, err := metadata.source()
		if err != nil {
			return err
		}

		deployer, cleanup, err := getDeployer(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		if !yes && !app.Config.NonInteractive && !app.Config.JSON {
			printSummary(cmd, deployer.Sender.Address().Hex(), deployer.Config.Network.Name, specs, source)
			ok, err := app.Selector.Confirm("Deploy profile")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Deployment cancelled")
				return nil
			}
		}

		result, err := deployer.DeployProfile.Deploy(cmd.Context(), usecase.DeployProfileParams{
			Network:       deployer.Config.Network.ID(),
			Controllers:   specs,
			Metadata:      source,
			Configuration: configuration,
		})
		stopProgress(cmd)

		renderer := render.NewProfileRenderer(out)
		if err != nil {
			var deployErr *domain.DeploymentError
			if !app.Config.JSON && errors.As(err, &deployErr) {
				renderer.RenderPartial(deployErr)
			}
			reportCheckpoint(cmd.ErrOrStderr(), app.Config.ProjectRoot, err)
			return err
		}

		var state *usecase.ProfileState
		if verify {
			account := result[domain.ContractAccount].Address
			if state, err = deployer.InspectProfile.Run(cmd.Context(), account); err != nil {
				return fmt.Errorf("failed to read back account: %w", err)
			}
		}

		if app.Config.JSON {
			return json.NewEncoder(out).Encode(struct {
				Contracts domain.DeployedContractsResult `json:"contracts"`
				State     *usecase.ProfileState          `json:"state,omitempty"`
			}{result, state})
		}

		renderer.RenderResult(result)
		if state != nil {
			renderer.RenderState(state)
		}
		return nil
	}

	return cmd
}

// printSummary shows what is about to be deployed
func printSummary(cmd *cobra.Command, deployer, network string, controllers []domain.ControllerSpec, source domain.MetadataSource) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	fmt.Fprintf(out, "Network:  %s\n", bold.Sprint(network))
	fmt.Fprintf(out, "Deployer: %s\n", deployer)
	fmt.Fprintln(out, "Controllers:")
	for _, c := range controllers {
		fmt.Fprintf(out, "  %s  %s\n", c.Address.Hex(), strings.Join(c.EffectivePermissions().Names(), ","))
	}
	fmt.Fprintf(out, "Metadata: %s\n\n", describeSource(source))
}

func describeSource(source domain.MetadataSource) string {
	switch s := source.(type) {
	case domain.DraftMetadataSource:
		return fmt.Sprintf("upload profile %q", s.Draft.Name)
	case domain.UploadedMetadataSource:
		return s.URL
	case domain.EncodedMetadataSource:
		return fmt.Sprintf("%d encoded bytes", len(s.Data))
	}
	return "none"
}
