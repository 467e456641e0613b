package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// Stand-ins for addresses only known after deployment
var (
	placeholderAccount  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	placeholderDelegate = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var (
		controllers []string
		deployer    string
		account     string
		delegate    string
		encoded     string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a deployment would do without sending transactions",
		Long: `Resolve the base contracts against the version registry and compute the storage
writes of the ownership transfer. Nothing is sent and no RPC connection is made,
so registry addresses are not checked for code.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringArrayVarP(&controllers, "controller", "c", nil, "Controller as 0xADDRESS[:PERMISSION,...] (repeatable)")
	cmd.Flags().StringVar(&deployer, "deployer", "", "Address that will send the transactions")
	cmd.Flags().StringVar(&account, "account", "", "Account address, if already known")
	cmd.Flags().StringVar(&delegate, "delegate", "", "Delegate address, if already known")
	cmd.Flags().StringVar(&encoded, "encoded-metadata", "", "Metadata value in on-chain format (hex)")
	overrides := addOverrideFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("deployer")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := getApp(cmd)
		if err != nil {
			return err
		}
		if app.Config.Network == nil {
			return fmt.Errorf("no network selected, use --network")
		}

		specs, err := parseControllers(controllers)
		if err != nil {
			return err
		}
		configuration, err := overrides.configuration(cmd.Flags())
		if err != nil {
			return err
		}

		registry, err := app.Registry.Registry(cmd.Context())
		if err != nil {
			return err
		}
		resolved, err := app.ResolveBaseContracts.Run(cmd.Context(), usecase.ResolveBaseContractsParams{
			Network:       app.Config.Network.ID(),
			Configuration: configuration,
			Registry:      registry,
		})
		if err != nil {
			return err
		}

		params := usecase.PermissionPlanParams{Controllers: specs}
		if params.Deployer, err = parseAddress("deployer", deployer, common.Address{}); err != nil {
			return err
		}
		if params.Account, err = parseAddress("account", account, placeholderAccount); err != nil {
			return err
		}
		if params.Delegate, err = parseAddress("delegate", delegate, placeholderDelegate); err != nil {
			return err
		}
		if encoded != "" {
			if params.Metadata, err = hexutil.Decode(encoded); err != nil {
				return fmt.Errorf("invalid --encoded-metadata: %w", err)
			}
			if !domain.IsEncodedMetadata(params.Metadata) {
				return fmt.Errorf("%w: --encoded-metadata does not start with the JSONURL marker", domain.ErrInvalidMetadata)
			}
		}

		plan, err := usecase.BuildPermissionPlan(params)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if app.Config.JSON {
			return json.NewEncoder(out).Encode(struct {
				Resolved domain.ResolvedBaseContracts `json:"resolved"`
				Entries  []domain.DataEntry           `json:"entries"`
			}{resolved, plan.Entries})
		}

		renderer := render.NewProfileRenderer(out)
		renderer.RenderResolved(app.Config.Network.Name, resolved)
		renderer.RenderPlan(plan)
		if account == "" || delegate == "" {
			fmt.Fprintln(out, render.FormatWarning("account and delegate addresses are placeholders until deployment"))
		}
		return nil
	}

	return cmd
}

// parseAddress parses a hex address flag, returning fallback when empty
func parseAddress(flag, value string, fallback common.Address) (common.Address, error) {
	if value == "" {
		if fallback == (common.Address{}) {
			return fallback, fmt.Errorf("--%s is required", flag)
		}
		return fallback, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: --%s %q", domain.ErrInvalidAddress, flag, value)
	}
	return common.HexToAddress(value), nil
}
