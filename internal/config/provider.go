package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/trebuchet-org/profile-factory/internal/adapters/network"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

// ConfigFileName is the optional project configuration file
const ConfigFileName = "pfactory.toml"

// Defaults
const (
	DefaultTimeout        = 10 * time.Minute
	DefaultUploadProvider = "ipfs"
	DefaultGasBuffer      = 100_000
)

// Provider creates RuntimeConfig for Wire dependency injection.
// Precedence: flags and PFACTORY_* environment, then pfactory.toml, then defaults.
// A network's RPC URL can also come from <NAME>_RPC_URL.
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		if projectRoot, err = FindProjectRoot(); err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadEnvFiles(projectRoot)

	file, configPath, err := loadFileConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ConfigFile:     configPath,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		PrivateKey:     v.GetString("private_key"),
		Upload: config.UploadConfig{
			Provider:   firstNonEmpty(v.GetString("upload_provider"), file.Upload.Provider, DefaultUploadProvider),
			APIURL:     firstNonEmpty(v.GetString("upload_api_url"), file.Upload.APIURL),
			GatewayURL: firstNonEmpty(v.GetString("gateway_url"), file.Upload.GatewayURL),
			PinataJWT:  firstNonEmpty(v.GetString("pinata_jwt"), file.Upload.PinataJWT),
			RetryMax:   file.Upload.RetryMax,
		},
		Deploy: config.DeployConfig{
			GasBuffer:    file.Deploy.GasBuffer,
			ProbeCode:    true,
			ArtifactsDir: firstNonEmpty(v.GetString("artifacts_dir"), file.Deploy.ArtifactsDir),
		},
		Registry: config.RegistryConfig{
			File: firstNonEmpty(v.GetString("registry_file"), file.Registry.File),
		},
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if v.IsSet("retry_max") {
		cfg.Upload.RetryMax = v.GetInt("retry_max")
	}
	if v.IsSet("gas_buffer") {
		cfg.Deploy.GasBuffer = v.GetUint64("gas_buffer")
	}
	if cfg.Deploy.GasBuffer == 0 {
		cfg.Deploy.GasBuffer = DefaultGasBuffer
	}
	if file.Deploy.ProbeCode != nil {
		cfg.Deploy.ProbeCode = *file.Deploy.ProbeCode
	}
	if v.IsSet("probe_code") {
		cfg.Deploy.ProbeCode = v.GetBool("probe_code")
	}

	resolver := network.NewResolver()
	resolver.LoadNetworks(file.Networks)
	cfg.Networks = resolver.Names()

	if networkName := v.GetString("network"); networkName != "" {
		n, err := resolver.ResolveNetwork(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		applyRPCEnv(n)
		if rpc := v.GetString("rpc_url"); rpc != "" {
			n.RPCURL = rpc
		}
		cfg.Network = n
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory looking for pfactory.toml.
// Without one, the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("PFACTORY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
