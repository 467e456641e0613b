package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/profile-factory/internal/cli/render"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// checkpointFile is what a failed ownership transfer leaves on disk
type checkpointFile struct {
	RunID     string                                `json:"runId"`
	Contracts map[domain.ContractName]common.Address `json:"contracts"`
	Ownership *domain.OwnershipCheckpoint           `json:"ownership"`
}

func checkpointPath(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("pfactory-resume-%s.json", runID))
}

// saveCheckpoint writes the retry point of err into dir and returns the file path
func saveCheckpoint(dir string, err *domain.DeploymentError) (string, error) {
	if !err.Ownership.Resumable() {
		return "", domain.ErrNotResumable
	}
	file := checkpointFile{
		RunID:     err.RunID,
		Contracts: make(map[domain.ContractName]common.Address, len(err.Deployed)),
		Ownership: err.Ownership,
	}
	for name, c := range err.Deployed {
		file.Contracts[name] = c.Address
	}
	data, jerr := json.MarshalIndent(file, "", "  ")
	if jerr != nil {
		return "", jerr
	}
	path := checkpointPath(dir, err.RunID)
	if werr := os.WriteFile(path, data, 0o600); werr != nil {
		return "", fmt.Errorf("failed to write checkpoint: %w", werr)
	}
	return path, nil
}

// loadCheckpoint rebuilds the failed run recorded at path
func loadCheckpoint(path string) (*domain.DeploymentError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var file checkpointFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid checkpoint %s: %w", path, err)
	}
	if !file.Ownership.Resumable() {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotResumable)
	}
	deployed := make(domain.DeployedContractsResult, len(file.Contracts))
	for name, addr := range file.Contracts {
		deployed[name] = domain.DeployedContract{Address: addr}
	}
	return &domain.DeploymentError{
		RunID:     file.RunID,
		Stage:     usecase.StageOwnership,
		Deployed:  deployed,
		Ownership: file.Ownership,
	}, nil
}

// reportCheckpoint saves a resumable failure and tells the user how to continue
func reportCheckpoint(out io.Writer, dir string, err error) {
	var deployErr *domain.DeploymentError
	if !errors.As(err, &deployErr) || !deployErr.Ownership.Resumable() {
		return
	}
	path, serr := saveCheckpoint(dir, deployErr)
	if serr != nil {
		fmt.Fprintln(out, render.FormatWarning(serr.Error()))
		return
	}
	fmt.Fprintln(out, render.FormatWarning(fmt.Sprintf("ownership transfer stopped at %s, continue with: pfactory resume %s",
		deployErr.Ownership.Phase, path)))
}

// NewResumeCmd creates the resume command
func NewResumeCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "resume <checkpoint>",
		Short: "Finish an ownership transfer that failed part way",
		Long: `Retry the ownership transfer of a deployment from the phase that failed.
A failed deploy writes the checkpoint file and prints its path.

Examples:
  pfactory resume pfactory-resume-3f2c....json`,
		Annotations: map[string]string{annotationProgress: "true"},
		Args:        cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the checkpoint file after a successful resume")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer stopProgress(cmd)

		failed, err := loadCheckpoint(args[0])
		if err != nil {
			return err
		}

		app, err := getApp(cmd)
		if err != nil {
			return err
		}
		network := failed.Ownership.Network
		if app.Config.Network == nil {
			if v, ok := cmd.Context().Value(viperKey).(*viper.Viper); ok && network != "" {
				v.Set("network", network)
			}
		} else if network != "" && app.Config.Network.ID() != network {
			return fmt.Errorf("checkpoint is for network %s, not %s", network, app.Config.Network.ID())
		}

		deployer, cleanup, err := getDeployer(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := deployer.DeployProfile.ResumeOwnership(cmd.Context(), failed)
		stopProgress(cmd)

		out := cmd.OutOrStdout()
		if err != nil {
			var deployErr *domain.DeploymentError
			if errors.As(err, &deployErr) && deployErr.Ownership.Resumable() {
				path, serr := saveCheckpoint(filepath.Dir(args[0]), deployErr)
				if serr != nil {
					return errors.Join(err, serr)
				}
				fmt.Fprintln(out, render.FormatWarning(fmt.Sprintf("checkpoint %s now starts at %s", path, deployErr.Ownership.Phase)))
			}
			return err
		}

		if !keep {
			if rerr := os.Remove(args[0]); rerr != nil {
				fmt.Fprintln(out, render.FormatWarning(rerr.Error()))
			}
		}

		if app.Config.JSON {
			return json.NewEncoder(out).Encode(struct {
				Contracts domain.DeployedContractsResult `json:"contracts"`
			}{result})
		}
		render.NewProfileRenderer(out).RenderResult(result)
		return nil
	}

	return cmd
}
