package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/profile-factory/internal/adapters/progress"
	"github.com/trebuchet-org/profile-factory/internal/app"
	"github.com/trebuchet-org/profile-factory/internal/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// viperKey holds the viper instance used to build the app
	viperKey contextKey = "viper"
	// sinkKey holds the progress sink shared by every use case of the command
	sinkKey contextKey = "sink"
)

// annotationProgress marks commands that report deployment progress
const annotationProgress = "progress"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pfactory",
		Short: "Deploy smart contract accounts with controllers and metadata",
		Long: `pfactory deploys an account, its permission manager and its receiver delegate,
uploads the profile metadata and hands ownership of the account to the
permission manager with the requested controllers in place.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			sink := newProgressSink(v, cmd)

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = context.WithValue(ctx, viperKey, v)
			ctx = context.WithValue(ctx, sinkKey, sink)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON instead of tables")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network name, chain id or RPC URL (e.g. lukso-testnet)")
	rootCmd.PersistentFlags().String("rpc-url", "", "Override the network's RPC URL")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspection Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	resumeCmd := NewResumeCmd()
	resumeCmd.GroupID = "main"
	rootCmd.AddCommand(resumeCmd)

	planCmd := NewPlanCmd()
	planCmd.GroupID = "main"
	rootCmd.AddCommand(planCmd)

	keysCmd := NewKeysCmd()
	keysCmd.GroupID = "inspect"
	rootCmd.AddCommand(keysCmd)

	registryCmd := NewRegistryCmd()
	registryCmd.GroupID = "inspect"
	rootCmd.AddCommand(registryCmd)

	metadataCmd := NewMetadataCmd()
	metadataCmd.GroupID = "inspect"
	rootCmd.AddCommand(metadataCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds command flags to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	// Only bind flags that exist and have been changed
	for flag, key := range map[string]string{
		"debug":           "debug",
		"non-interactive": "non_interactive",
		"json":            "json",
		"network":         "network",
		"rpc-url":         "rpc_url",
	} {
		if f := cmd.Flag(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
}

// newProgressSink picks the sink for cmd: JSON lines, a spinner for deployments, or nothing
func newProgressSink(v *viper.Viper, cmd *cobra.Command) usecase.ProgressSink {
	if _, ok := cmd.Annotations[annotationProgress]; !ok {
		return progress.NewNopSink()
	}
	if v.GetBool("json") {
		return progress.NewJSONSink(os.Stdout)
	}
	return progress.NewSpinnerProgressReporter()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance, ok := cmd.Context().Value(appKey).(*app.App)
	if !ok {
		return nil, fmt.Errorf("app not initialized")
	}
	return appInstance, nil
}

// getDeployer connects to the configured network. The caller must call the returned cleanup.
func getDeployer(cmd *cobra.Command) (*app.Deployer, func(), error) {
	v, ok := cmd.Context().Value(viperKey).(*viper.Viper)
	if !ok {
		return nil, nil, fmt.Errorf("app not initialized")
	}
	sink, _ := cmd.Context().Value(sinkKey).(usecase.ProgressSink)
	if sink == nil {
		sink = progress.NewNopSink()
	}
	deployer, cleanup, err := app.InitDeployer(v, sink)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return deployer, cleanup, nil
}

// stopProgress stops the spinner if the command's sink has one
func stopProgress(cmd *cobra.Command) {
	if s, ok := cmd.Context().Value(sinkKey).(interface{ Stop() }); ok {
		s.Stop()
	}
}
