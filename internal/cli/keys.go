package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// NewKeysCmd creates the keys command
func NewKeysCmd() *cobra.Command {
	var permissions string

	cmd := &cobra.Command{
		Use:   "keys [controller...]",
		Short: "Print the account storage keys used for delegates, controllers and metadata",
		Long: `Print the storage keys written during deployment. With controller addresses, also
print their array element keys and permission keys. With --permissions, print the
32 byte value of a permission list instead.

Examples:
  pfactory keys 0xabc... 0xdef...
  pfactory keys --permissions CHANGEOWNER,SETDATA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if permissions != "" {
				perms, err := domain.ParsePermissions(permissions)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  %s\n", common.BytesToHash(perms.Bytes32()).Hex(), perms.String())
				return nil
			}

			addrs := make([]common.Address, 0, len(args))
			for _, a := range args {
				if !common.IsHexAddress(a) {
					return fmt.Errorf("%w: %q", domain.ErrInvalidAddress, a)
				}
				addrs = append(addrs, common.HexToAddress(a))
			}

			if app.Config.JSON {
				keys := map[string]common.Hash{
					"metadata":    domain.MetadataKey,
					"delegate":    domain.DelegateKey,
					"controllers": domain.ControllersArrayKey,
				}
				for i, addr := range addrs {
					keys[fmt.Sprintf("controllers[%d]", i)] = domain.ControllerElementKey(uint64(i))
					keys["permissions:"+addr.Hex()] = domain.PermissionKey(addr)
				}
				return json.NewEncoder(out).Encode(keys)
			}

			render.NewProfileRenderer(out).RenderKeys(addrs)
			return nil
		},
	}

	cmd.Flags().StringVar(&permissions, "permissions", "", "Encode a comma separated permission list")
	return cmd
}
