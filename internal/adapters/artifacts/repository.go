package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// Names are the artifact names of one logical contract
type Names struct {
	Standalone string
	Base       string
}

// DefaultNames maps logical contracts to the artifact names of the LSP contracts
var DefaultNames = map[domain.ContractName]Names{
	domain.ContractAccount:           {Standalone: "UniversalProfile", Base: "UniversalProfileInit"},
	domain.ContractPermissionManager: {Standalone: "LSP6KeyManager", Base: "LSP6KeyManagerInit"},
	domain.ContractDelegate:          {Standalone: "LSP1UniversalReceiverDelegateUP", Base: "LSP1UniversalReceiverDelegateUP"},
}

// Repository reads creation bytecode from Foundry or Hardhat artifact directories
type Repository struct {
	dir   string
	names map[domain.ContractName]Names
	log   *slog.Logger

	mu    sync.Mutex
	cache map[string][]byte
}

// NewRepository creates a repository rooted at the configured artifacts directory
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	dir := cfg.Deploy.ArtifactsDir
	if dir != "" && !filepath.IsAbs(dir) && cfg.ProjectRoot != "" {
		dir = filepath.Join(cfg.ProjectRoot, dir)
	}
	return NewRepositoryAt(dir, DefaultNames, log)
}

// NewRepositoryAt creates a repository with explicit artifact names
func NewRepositoryAt(dir string, names map[domain.ContractName]Names, log *slog.Logger) *Repository {
	return &Repository{
		dir:   dir,
		names: names,
		log:   log.With("component", "ArtifactRepository"),
		cache: make(map[string][]byte),
	}
}

// Bytecode returns the creation code of a contract. base selects the initializable variant.
func (r *Repository) Bytecode(ctx context.Context, name domain.ContractName, base bool) ([]byte, error) {
	names, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: no artifact name for %s", domain.ErrMissingBytecode, name)
	}
	artifact := names.Standalone
	if base {
		artifact = names.Base
	}
	if r.dir == "" {
		return nil, fmt.Errorf("%w: no artifacts directory configured for %s", domain.ErrMissingBytecode, artifact)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.cache[artifact]; ok {
		return code, nil
	}

	path, err := r.find(artifact)
	if err != nil {
		return nil, err
	}
	code, err := readBytecode(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	r.log.Debug("artifact loaded", "contract", name, "artifact", artifact, "path", path, "bytes", len(code))
	r.cache[artifact] = code
	return code, nil
}

// find looks at the conventional locations first, then walks the directory
func (r *Repository) find(artifact string) (string, error) {
	for _, candidate := range []string{
		filepath.Join(r.dir, artifact+".sol", artifact+".json"),
		filepath.Join(r.dir, artifact+".json"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	var found string
	errFound := errors.New("found")
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == artifact+".json" {
			found = path
			return errFound
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("failed to search artifacts in %s: %w", r.dir, err)
	}
	return "", fmt.Errorf("%w: artifact %s not found in %s", domain.ErrMissingBytecode, artifact, r.dir)
}

// readBytecode accepts both the Foundry ({"object": "0x.."}) and Hardhat ("0x..") shapes
func readBytecode(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact struct {
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	var hex string
	if err := json.Unmarshal(artifact.Bytecode, &hex); err != nil {
		var object struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(artifact.Bytecode, &object); err != nil {
			return nil, fmt.Errorf("unrecognized bytecode field")
		}
		hex = object.Object
	}
	if hex == "" || hex == "0x" {
		return nil, fmt.Errorf("%w: artifact has no creation code", domain.ErrMissingBytecode)
	}
	if strings.Contains(hex, "__$") {
		return nil, fmt.Errorf("bytecode has unlinked libraries")
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	return hexutil.Decode(hex)
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
