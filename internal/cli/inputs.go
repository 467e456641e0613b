package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// parseControllers parses repeated --controller values
func parseControllers(values []string) ([]domain.ControllerSpec, error) {
	controllers := make([]domain.ControllerSpec, 0, len(values))
	for _, v := range values {
		// allow comma separated addresses when no permissions are given
		for _, part := range splitControllerValue(v) {
			c, err := domain.ParseControllerSpec(part)
			if err != nil {
				return nil, fmt.Errorf("invalid controller %q: %w", part, err)
			}
			controllers = append(controllers, c)
		}
	}
	return controllers, nil
}

func splitControllerValue(v string) []string {
	if strings.Contains(v, ":") {
		return []string{v}
	}
	return lo.Filter(lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool { return s != "" })
}

// overrideFlags holds the per-contract override flags
type overrideFlags struct {
	version  map[domain.ContractName]*string
	address  map[domain.ContractName]*string
	bytecode map[domain.ContractName]*string
	proxy    map[domain.ContractName]*bool
}

// flagPrefix returns the kebab-case flag prefix of a contract
func flagPrefix(name domain.ContractName) string {
	switch name {
	case domain.ContractPermissionManager:
		return "permission-manager"
	default:
		return strings.ToLower(string(name))
	}
}

// addOverrideFlags registers --<contract>-version, -address, -bytecode and -proxy on fs
func addOverrideFlags(fs *pflag.FlagSet) *overrideFlags {
	o := &overrideFlags{
		version:  make(map[domain.ContractName]*string),
		address:  make(map[domain.ContractName]*string),
		bytecode: make(map[domain.ContractName]*string),
		proxy:    make(map[domain.ContractName]*bool),
	}
	for _, name := range domain.AllContracts {
		p := flagPrefix(name)
		o.version[name] = fs.String(p+"-version", "", fmt.Sprintf("%s version from the registry", name))
		o.address[name] = fs.String(p+"-address", "", fmt.Sprintf("Existing %s logic contract to proxy", name))
		o.bytecode[name] = fs.String(p+"-bytecode", "", fmt.Sprintf("%s creation code as hex, or @file", name))
		o.proxy[name] = fs.Bool(p+"-proxy", false, fmt.Sprintf("Deploy %s behind a proxy (set =false to deploy standalone)", name))
	}
	return o
}

// configuration builds the deployment configuration from the flags set on fs
func (o *overrideFlags) configuration(fs *pflag.FlagSet) (domain.DeploymentConfiguration, error) {
	var cfg domain.DeploymentConfiguration
	for _, name := range domain.AllContracts {
		var override domain.ContractOverride
		override.Version = *o.version[name]

		if addr := *o.address[name]; addr != "" {
			if !common.IsHexAddress(addr) {
				return cfg, fmt.Errorf("%w: --%s-address %q", domain.ErrInvalidAddress, flagPrefix(name), addr)
			}
			a := common.HexToAddress(addr)
			override.LibraryAddress = &a
		}

		if code := *o.bytecode[name]; code != "" {
			b, err := readBytecode(code)
			if err != nil {
				return cfg, fmt.Errorf("--%s-bytecode: %w", flagPrefix(name), err)
			}
			override.Bytecode = b
		}

		if f := fs.Lookup(flagPrefix(name) + "-proxy"); f != nil && f.Changed {
			override.DeployAsProxy = lo.ToPtr(*o.proxy[name])
		}
		cfg = cfg.WithOverride(name, override)
	}
	return cfg, nil
}

// readBytecode decodes hex inline or from @file
func readBytecode(value string) ([]byte, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		value = strings.TrimSpace(string(data))
	}
	if !strings.HasPrefix(value, "0x") {
		value = "0x" + value
	}
	b, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty bytecode")
	}
	return b, nil
}

// draftFile is the on-disk profile description. File paths are relative to the file.
type draftFile struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Tags            []string      `json:"tags"`
	Links           []domain.Link `json:"links"`
	ProfileImage    string        `json:"profileImage"`
	BackgroundImage string        `json:"backgroundImage"`
	Avatar          []string      `json:"avatar"`
}

// loadDraft reads a profile description and the files it references
func loadDraft(path string) (*domain.ProfileDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var f draftFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	draft := &domain.ProfileDraft{
		Name:        f.Name,
		Description: f.Description,
		Tags:        f.Tags,
		Links:       f.Links,
	}
	if f.ProfileImage != "" {
		asset, err := readAsset(dir, f.ProfileImage)
		if err != nil {
			return nil, err
		}
		draft.ProfileImage = &domain.ImageInput{AssetInput: asset}
	}
	if f.BackgroundImage != "" {
		asset, err := readAsset(dir, f.BackgroundImage)
		if err != nil {
			return nil, err
		}
		draft.BackgroundImage = &domain.ImageInput{AssetInput: asset}
	}
	for _, p := range f.Avatar {
		asset, err := readAsset(dir, p)
		if err != nil {
			return nil, err
		}
		draft.Avatar = append(draft.Avatar, asset)
	}
	return draft, nil
}

func readAsset(dir, path string) (domain.AssetInput, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AssetInput{}, fmt.Errorf("failed to read asset: %w", err)
	}
	return domain.AssetInput{FileName: filepath.Base(path), Data: data}, nil
}

// metadataFlags selects at most one metadata source
type metadataFlags struct {
	profile string
	docPath string
	url     string
	encoded string
}

func addMetadataFlags(fs *pflag.FlagSet) *metadataFlags {
	m := &metadataFlags{}
	fs.StringVar(&m.profile, "metadata", "", "Profile description (JSON) whose images and assets are uploaded")
	fs.StringVar(&m.docPath, "metadata-json", "", "Already uploaded metadata document, used with --metadata-url")
	fs.StringVar(&m.url, "metadata-url", "", "URL of the already uploaded metadata document")
	fs.StringVar(&m.encoded, "encoded-metadata", "", "Metadata value already in on-chain format (hex)")
	return m
}

// source returns the selected metadata source, or nil when none is given
func (m *metadataFlags) source() (domain.MetadataSource, error) {
	set := lo.Filter([]string{m.profile, m.url, m.encoded}, func(s string, _ int) bool { return s != "" })
	if len(set) > 1 {
		return nil, fmt.Errorf("--metadata, --metadata-url and --encoded-metadata are mutually exclusive")
	}

	switch {
	case m.profile != "":
		draft, err := loadDraft(m.profile)
		if err != nil {
			return nil, err
		}
		return domain.MetadataToUpload(draft)
	case m.url != "":
		if m.docPath == "" {
			return nil, fmt.Errorf("--metadata-url requires --metadata-json")
		}
		doc, err := os.ReadFile(m.docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata document: %w", err)
		}
		return domain.UploadedMetadata(doc, m.url)
	case m.encoded != "":
		data, err := hexutil.Decode(m.encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid --encoded-metadata: %w", err)
		}
		return domain.EncodedMetadata(data)
	case m.docPath != "":
		return nil, fmt.Errorf("--metadata-json requires --metadata-url")
	}
	return nil, nil
}
