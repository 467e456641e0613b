package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
)

// NewMetadataCmd creates the metadata command
func NewMetadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Work with encoded profile metadata",
	}
	cmd.AddCommand(newMetadataDecodeCmd())
	return cmd
}

func newMetadataDecodeCmd() *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a metadata value as stored on an account",
		Long: `Decode a metadata value into its hash function, hash and URL. With --fetch the
document is downloaded and its hash checked against the encoded one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			data, err := hexutil.Decode(args[0])
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}

			result, err := app.DecodeMetadata.Run(cmd.Context(), data, fetch)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			return render.NewProfileRenderer(cmd.OutOrStdout()).RenderDecoded(result)
		},
	}

	cmd.Flags().BoolVar(&fetch, "fetch", false, "Download the document and verify its hash")
	return cmd
}
