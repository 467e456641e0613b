package domain

import (
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ContractVersions holds the known logic contract addresses of one contract on one network
type ContractVersions struct {
	DefaultVersion string                    `json:"defaultVersion" yaml:"default" toml:"default"`
	Proxy          bool                      `json:"proxy" yaml:"proxy" toml:"proxy"`
	Versions       map[string]common.Address `json:"versions" yaml:"versions" toml:"versions"`
}

// VersionRegistry is an immutable snapshot: network id -> contract -> versions.
// Network ids are decimal chain ids.
type VersionRegistry struct {
	networks map[string]map[ContractName]ContractVersions
}

// NewVersionRegistry copies the given entries into a new snapshot
func NewVersionRegistry(entries map[string]map[ContractName]ContractVersions) *VersionRegistry {
	networks := make(map[string]map[ContractName]ContractVersions, len(entries))
	for network, contracts := range entries {
		cs := make(map[ContractName]ContractVersions, len(contracts))
		for name, cv := range contracts {
			versions := make(map[string]common.Address, len(cv.Versions))
			for v, addr := range cv.Versions {
				versions[v] = addr
			}
			cs[name] = ContractVersions{
				DefaultVersion: cv.DefaultVersion,
				Proxy:          cv.Proxy,
				Versions:       versions,
			}
		}
		networks[network] = cs
	}
	return &VersionRegistry{networks: networks}
}

// Lookup returns the version table for a contract on a network
func (r *VersionRegistry) Lookup(network string, name ContractName) (ContractVersions, bool) {
	if r == nil {
		return ContractVersions{}, false
	}
	contracts, ok := r.networks[network]
	if !ok {
		return ContractVersions{}, false
	}
	cv, ok := contracts[name]
	return cv, ok
}

// Address returns the logic address of an explicit version
func (r *VersionRegistry) Address(network string, name ContractName, version string) (common.Address, bool) {
	cv, ok := r.Lookup(network, name)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := cv.Versions[version]
	return addr, ok
}

// DefaultAddress returns the default version and its address for a contract on a network
func (r *VersionRegistry) DefaultAddress(network string, name ContractName) (string, common.Address, bool) {
	cv, ok := r.Lookup(network, name)
	if !ok || cv.DefaultVersion == "" {
		return "", common.Address{}, false
	}
	addr, ok := cv.Versions[cv.DefaultVersion]
	return cv.DefaultVersion, addr, ok
}

// UsesProxyByDefault reports the registry's proxy preference for a contract on a network
func (r *VersionRegistry) UsesProxyByDefault(network string, name ContractName) bool {
	cv, ok := r.Lookup(network, name)
	return ok && cv.Proxy
}

// Networks returns all network ids in the snapshot, sorted
func (r *VersionRegistry) Networks() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.networks))
	for n := range r.networks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the snapshot as network id -> contract -> versions
func (r *VersionRegistry) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.networks)
}
