package network

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

// Resolver handles network configuration resolution
type Resolver struct {
	networks      map[string]*config.Network
	chainIDLookup map[uint64]string // chainID -> network name
}

// NewResolver creates a new network resolver
func NewResolver() *Resolver {
	r := &Resolver{
		networks:      make(map[string]*config.Network),
		chainIDLookup: make(map[uint64]string),
	}

	r.initializeDefaultNetworks()

	return r
}

func (r *Resolver) initializeDefaultNetworks() {
	defaultNetworks := []config.Network{
		{ChainID: 42, Name: "lukso", RPCURL: "https://rpc.mainnet.lukso.network"},
		{ChainID: 4201, Name: "lukso-testnet", RPCURL: "https://rpc.testnet.lukso.network"},
		{ChainID: 31337, Name: "localhost", RPCURL: "http://localhost:8545"},
		{ChainID: 31337, Name: "anvil", RPCURL: "http://localhost:8545"},
	}

	for _, network := range defaultNetworks {
		r.addNetwork(network)
	}
}

func (r *Resolver) addNetwork(network config.Network) {
	n := network
	r.networks[strings.ToLower(n.Name)] = &n
	if _, ok := r.chainIDLookup[n.ChainID]; !ok && n.ChainID != 0 {
		r.chainIDLookup[n.ChainID] = strings.ToLower(n.Name)
	}
}

// LoadNetworks adds or replaces networks, typically from pfactory.toml
func (r *Resolver) LoadNetworks(networks map[string]config.Network) {
	for name, network := range networks {
		if network.Name == "" {
			network.Name = name
		}
		if existing, ok := r.networks[strings.ToLower(network.Name)]; ok && network.ChainID == 0 {
			network.ChainID = existing.ChainID
		}
		r.addNetwork(network)
		if network.ChainID != 0 {
			r.chainIDLookup[network.ChainID] = strings.ToLower(network.Name)
		}
	}
}

// ResolveNetwork resolves a network by name, chain ID, or RPC URL.
// A bare RPC URL yields a network whose chain id is learnt when dialing.
func (r *Resolver) ResolveNetwork(input string) (*config.Network, error) {
	if input == "" {
		return nil, fmt.Errorf("network not specified")
	}

	if network, ok := r.networks[strings.ToLower(input)]; ok {
		cp := *network
		return &cp, nil
	}

	if chainID, err := strconv.ParseUint(input, 10, 64); err == nil {
		if name, ok := r.chainIDLookup[chainID]; ok {
			cp := *r.networks[name]
			return &cp, nil
		}
		return nil, fmt.Errorf("%w: chain id %d has no configured RPC URL", domain.ErrUnknownNetwork, chainID)
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "ws://") || strings.HasPrefix(input, "wss://") {
		return &config.Network{Name: "custom", RPCURL: input}, nil
	}

	hint := ""
	if matches := fuzzy.Find(input, r.Names()); len(matches) > 0 {
		hint = fmt.Sprintf(" (did you mean %s?)", matches[0].Str)
	}
	return nil, fmt.Errorf("%w: %s%s", domain.ErrUnknownNetwork, input, hint)
}

// Names returns all configured network names, sorted
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameOf returns the configured name of a chain id
func (r *Resolver) NameOf(chainID uint64) (string, bool) {
	name, ok := r.chainIDLookup[chainID]
	return name, ok
}
