package config

import (
	"strconv"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	ConfigFile  string // path of pfactory.toml, empty when absent

	// Context settings
	Network  *Network // nil if not specified
	Networks []string // names of every known network

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output events as JSON lines
	Timeout        time.Duration

	// Signing
	PrivateKey string `json:"-"`

	// Resolved configurations
	Upload   UploadConfig
	Deploy   DeployConfig
	Registry RegistryConfig
}

// Network represents network configuration
type Network struct {
	Name    string `json:"name" toml:"-"`
	RPCURL  string `json:"rpcUrl" toml:"rpc_url"`
	ChainID uint64 `json:"chainId" toml:"chain_id"`
}

// ID returns the network id used as the version registry key
func (n *Network) ID() string {
	if n == nil {
		return ""
	}
	return strconv.FormatUint(n.ChainID, 10)
}

// UploadConfig selects and configures the content-addressed upload provider
type UploadConfig struct {
	Provider   string `toml:"provider"` // ipfs, pinata or memory
	APIURL     string `toml:"api_url"`
	GatewayURL string `toml:"gateway_url"`
	PinataJWT  string `toml:"pinata_jwt" json:"-"`
	RetryMax   int    `toml:"retry_max"`
}

// DeployConfig holds pipeline tuning knobs
type DeployConfig struct {
	GasBuffer    uint64 `toml:"gas_buffer"`
	ProbeCode    bool   `toml:"probe_code"`
	ArtifactsDir string `toml:"artifacts_dir"` // compiled artifacts for fresh deployments
}

// RegistryConfig points at an optional version registry file overriding the embedded one
type RegistryConfig struct {
	File string `toml:"file"`
}

// FileConfig is the on-disk shape of pfactory.toml
type FileConfig struct {
	Networks map[string]Network `toml:"networks"`
	Upload   UploadConfig       `toml:"upload"`
	Deploy   struct {
		GasBuffer    uint64 `toml:"gas_buffer"`
		ProbeCode    *bool  `toml:"probe_code"`
		ArtifactsDir string `toml:"artifacts_dir"`
	} `toml:"deploy"`
	Registry RegistryConfig `toml:"registry"`
}
