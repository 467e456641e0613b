package registry

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
	"gopkg.in/yaml.v3"
)

//go:embed default_registry.yaml
var defaultRegistry []byte

// File is the on-disk shape of a version registry, in YAML or TOML
type File struct {
	Networks map[string]NetworkEntry `yaml:"networks" toml:"networks"`
}

// NetworkEntry lists the contracts known on one chain id
type NetworkEntry struct {
	Name      string                   `yaml:"name" toml:"name"`
	Contracts map[string]ContractEntry `yaml:"contracts" toml:"contracts"`
}

// ContractEntry is the version table of one contract
type ContractEntry struct {
	Default  string            `yaml:"default" toml:"default"`
	Proxy    *bool             `yaml:"proxy" toml:"proxy"`
	Versions map[string]string `yaml:"versions" toml:"versions"`
}

// Loader provides the version registry: the embedded defaults, optionally
// overlaid with a project registry file. The snapshot is built once.
type Loader struct {
	file string
	log  *slog.Logger

	mu       sync.Mutex
	snapshot *domain.VersionRegistry
	names    map[string]string
}

// NewLoader creates a registry loader from the runtime configuration
func NewLoader(cfg *config.RuntimeConfig, log *slog.Logger) *Loader {
	file := cfg.Registry.File
	if file != "" && !filepath.IsAbs(file) && cfg.ProjectRoot != "" {
		file = filepath.Join(cfg.ProjectRoot, file)
	}
	return &Loader{
		file: file,
		log:  log.With("component", "RegistryLoader"),
	}
}

// Registry returns the immutable registry snapshot
func (l *Loader) Registry(ctx context.Context) (*domain.VersionRegistry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snapshot != nil {
		return l.snapshot, nil
	}

	merged, err := Parse(defaultRegistry, "yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded registry: %w", err)
	}
	if l.file != "" {
		data, err := os.ReadFile(l.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read registry file: %w", err)
		}
		overlay, err := Parse(data, strings.TrimPrefix(filepath.Ext(l.file), "."))
		if err != nil {
			return nil, fmt.Errorf("failed to parse registry file %s: %w", l.file, err)
		}
		merged.Merge(overlay)
		l.log.Debug("registry file loaded", "file", l.file, "networks", len(overlay.Networks))
	}

	snapshot, err := merged.Build()
	if err != nil {
		return nil, err
	}
	l.snapshot = snapshot
	l.names = make(map[string]string, len(merged.Networks))
	for id, n := range merged.Networks {
		l.names[id] = n.Name
	}
	return snapshot, nil
}

// NetworkName returns the human readable name of a network id, if the registry has one
func (l *Loader) NetworkName(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.names[id]
}

// Parse decodes a registry file. format is "yaml", "yml" or "toml".
func Parse(data []byte, format string) (*File, error) {
	var f File
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	case "toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown registry keys: %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported registry format %q", format)
	}
	if f.Networks == nil {
		f.Networks = map[string]NetworkEntry{}
	}
	return &f, nil
}

// Merge overlays other onto f. Versions are added, default and proxy replaced when set.
func (f *File) Merge(other *File) {
	for id, on := range other.Networks {
		n, ok := f.Networks[id]
		if !ok {
			f.Networks[id] = on
			continue
		}
		if on.Name != "" {
			n.Name = on.Name
		}
		if n.Contracts == nil {
			n.Contracts = map[string]ContractEntry{}
		}
		for name, oc := range on.Contracts {
			c := n.Contracts[name]
			if oc.Default != "" {
				c.Default = oc.Default
			}
			if oc.Proxy != nil {
				c.Proxy = oc.Proxy
			}
			if c.Versions == nil {
				c.Versions = map[string]string{}
			}
			for v, addr := range oc.Versions {
				c.Versions[v] = addr
			}
			n.Contracts[name] = c
		}
		f.Networks[id] = n
	}
}

// Build validates the file and turns it into a registry snapshot
func (f *File) Build() (*domain.VersionRegistry, error) {
	entries := make(map[string]map[domain.ContractName]domain.ContractVersions, len(f.Networks))
	for id, n := range f.Networks {
		contracts := make(map[domain.ContractName]domain.ContractVersions, len(n.Contracts))
		for rawName, c := range n.Contracts {
			name, err := domain.ParseContractName(rawName)
			if err != nil {
				return nil, fmt.Errorf("network %s: %w%s", id, err, suggestion(rawName, contractNames()))
			}
			versions := make(map[string]common.Address, len(c.Versions))
			for v, addr := range c.Versions {
				if !common.IsHexAddress(addr) {
					return nil, fmt.Errorf("network %s: %s version %s: %w: %q", id, name, v, domain.ErrInvalidAddress, addr)
				}
				versions[v] = common.HexToAddress(addr)
			}
			if c.Default != "" {
				if _, ok := versions[c.Default]; !ok {
					return nil, fmt.Errorf("network %s: %s default version %s is not listed", id, name, c.Default)
				}
			}
			contracts[name] = domain.ContractVersions{
				DefaultVersion: c.Default,
				Proxy:          c.Proxy != nil && *c.Proxy,
				Versions:       versions,
			}
		}
		entries[id] = contracts
	}
	return domain.NewVersionRegistry(entries), nil
}

func contractNames() []string {
	names := make([]string, len(domain.AllContracts))
	for i, n := range domain.AllContracts {
		names[i] = string(n)
	}
	return names
}

// suggestion returns a "did you mean" hint, or an empty string
func suggestion(input string, candidates []string) string {
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", matches[0].Str)
}

var _ usecase.RegistryProvider = (*Loader)(nil)
