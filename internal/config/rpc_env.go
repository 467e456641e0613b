package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates the conventional env var name for a network's RPC URL.
// Examples: lukso -> LUKSO_RPC_URL, lukso-testnet -> LUKSO_TESTNET_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// checkRPCReference rejects an rpc_url that is a bare ${VAR} whose variable is unset
func checkRPCReference(networkName, rawValue string) error {
	envVar, ok := DetectEnvVar(rawValue)
	if !ok {
		return nil
	}
	if _, set := os.LookupEnv(envVar); !set {
		return fmt.Errorf("network %s: rpc_url references ${%s}, which is not set", networkName, envVar)
	}
	return nil
}

// applyRPCEnv replaces the network's RPC URL with <NAME>_RPC_URL when that variable is set
func applyRPCEnv(n *config.Network) {
	if n == nil || n.Name == "" {
		return
	}
	if rpc := os.Getenv(GenerateEnvVarName(n.Name)); rpc != "" {
		n.RPCURL = rpc
	}
}
