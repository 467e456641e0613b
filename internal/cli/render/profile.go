package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// ProfileRenderer renders deployment plans, results and account state
type ProfileRenderer struct {
	out io.Writer
}

// NewProfileRenderer creates a new profile renderer
func NewProfileRenderer(out io.Writer) *ProfileRenderer {
	return &ProfileRenderer{out: out}
}

// RenderResolved renders the resolver decision for each contract
func (r *ProfileRenderer) RenderResolved(network string, resolved domain.ResolvedBaseContracts) {
	fmt.Fprintf(r.out, "Base contracts on %s:\n\n", color.New(color.Bold).Sprint(network))

	t := newTable("CONTRACT", "MODE", "SOURCE", "VERSION", "BASE")
	for _, name := range domain.AllContracts {
		rc, ok := resolved[name]
		if !ok {
			continue
		}
		base := rc.Address.Hex()
		if rc.Mode != domain.ModeProxy {
			base = fmt.Sprintf("%d bytes of bytecode", len(rc.Bytecode))
		}
		if rc.Downgraded {
			base += color.New(color.FgYellow).Sprint(" (registry address has no code)")
		}
		version := rc.Version
		if version == "" {
			version = "-"
		}
		t.AppendRow(table.Row{string(name), titleCase(string(rc.Mode)), string(rc.Source), version, base})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)
}

// RenderPlan renders the storage writes of the commit phase
func (r *ProfileRenderer) RenderPlan(plan *usecase.PermissionPlan) {
	fmt.Fprintf(r.out, "Storage entries (%d):\n\n", len(plan.Entries))

	t := newTable("#", "KEY", "VALUE", "ENTRY")
	for i, e := range plan.Entries {
		t.AppendRow(table.Row{i, e.Key.Hex(), shortHex(hexutil.Encode(e.Value), 16), e.Label})
	}
	fmt.Fprintln(r.out, t.Render())

	revoke := "empty (deployer is not a controller)"
	if plan.DeployerIsController {
		perms, _ := domain.DecodePermission(plan.RevokeValue)
		revoke = perms.String()
	}
	fmt.Fprintf(r.out, "\nDeployer %s is reset to: %s\n", plan.Deployer.Hex(), revoke)
}

// RenderResult renders the deployed contracts
func (r *ProfileRenderer) RenderResult(result domain.DeployedContractsResult) {
	fmt.Fprintln(r.out, FormatSuccess("Profile deployed"))
	fmt.Fprintln(r.out)

	t := newTable("CONTRACT", "ADDRESS", "BLOCK", "TX")
	for _, name := range domain.AllContracts {
		c, ok := result[name]
		if !ok {
			continue
		}
		block, tx := "-", "-"
		if c.Receipt != nil {
			if c.Receipt.BlockNumber != nil {
				block = c.Receipt.BlockNumber.String()
			}
			tx = c.Receipt.TxHash.Hex()
		}
		t.AppendRow(table.Row{string(name), color.New(color.FgGreen).Sprint(c.Address.Hex()), block, tx})
	}
	fmt.Fprintln(r.out, t.Render())
}

// RenderPartial renders what was deployed before a failure
func (r *ProfileRenderer) RenderPartial(err *domain.DeploymentError) {
	if len(err.Deployed) == 0 {
		return
	}
	fmt.Fprintln(r.out, FormatFailure(fmt.Sprintf("deployment failed during %s", err.Stage)))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Deployed before the failure:")
	t := newTable("CONTRACT", "ADDRESS")
	for _, name := range domain.AllContracts {
		if c, ok := err.Deployed[name]; ok {
			t.AppendRow(table.Row{string(name), c.Address.Hex()})
		}
	}
	fmt.Fprintln(r.out, t.Render())
}

// RenderState renders an account's linked state
func (r *ProfileRenderer) RenderState(state *usecase.ProfileState) {
	fmt.Fprintf(r.out, "\nAccount %s\n", color.New(color.Bold).Sprint(state.Account.Hex()))
	delegate := "-"
	if state.Delegate != (common.Address{}) {
		delegate = state.Delegate.Hex()
	}
	fmt.Fprintf(r.out, "  Delegate: %s\n", delegate)

	t := newTable("CONTROLLER", "PERMISSIONS")
	for _, c := range state.Controllers {
		t.AppendRow(table.Row{c.Address.Hex(), c.Permissions.String()})
	}
	fmt.Fprintln(r.out, t.Render())
	if len(state.Metadata) > 0 {
		fmt.Fprintf(r.out, "  Metadata: %s\n", shortHex(hexutil.Encode(state.Metadata), 24))
	}
}

// RenderKeys renders the fixed storage keys and the per-controller keys of addrs
func (r *ProfileRenderer) RenderKeys(addrs []common.Address) {
	t := newTable("ENTRY", "KEY")
	t.AppendRow(table.Row{"metadata", domain.MetadataKey.Hex()})
	t.AppendRow(table.Row{"delegate", domain.DelegateKey.Hex()})
	t.AppendRow(table.Row{"controllers:length", domain.ControllersArrayKey.Hex()})
	for i, addr := range addrs {
		t.AppendRow(table.Row{fmt.Sprintf("controllers[%d]", i), domain.ControllerElementKey(uint64(i)).Hex()})
		t.AppendRow(table.Row{"permissions:" + addr.Hex(), domain.PermissionKey(addr).Hex()})
	}
	fmt.Fprintln(r.out, t.Render())
}

// RenderRegistry renders every network and version of the registry
func (r *ProfileRenderer) RenderRegistry(reg *domain.VersionRegistry, networkName func(string) string) {
	t := newTable("NETWORK", "CONTRACT", "VERSION", "ADDRESS", "")
	for _, id := range reg.Networks() {
		label := id
		if name := networkName(id); name != "" {
			label = fmt.Sprintf("%s (%s)", name, id)
		}
		for _, contract := range domain.AllContracts {
			cv, ok := reg.Lookup(id, contract)
			if !ok {
				continue
			}
			versions := make([]string, 0, len(cv.Versions))
			for v := range cv.Versions {
				versions = append(versions, v)
			}
			sort.Strings(versions)
			for _, v := range versions {
				var flags []string
				if v == cv.DefaultVersion {
					flags = append(flags, "default")
					if cv.Proxy {
						flags = append(flags, "proxy")
					}
				}
				t.AppendRow(table.Row{label, string(contract), v, cv.Versions[v].Hex(), strings.Join(flags, ", ")})
			}
		}
	}
	fmt.Fprintln(r.out, t.Render())
}

// RenderDecoded renders a decoded metadata value
func (r *ProfileRenderer) RenderDecoded(result *usecase.DecodeMetadataResult) error {
	fmt.Fprintf(r.out, "Hash function: %s\n", result.HashFunction)
	fmt.Fprintf(r.out, "Hash:          %s\n", hexutil.Encode(result.Hash))
	fmt.Fprintf(r.out, "URL:           %s\n", result.URL)
	if result.JSON == nil {
		return nil
	}
	if result.Verified {
		fmt.Fprintln(r.out, FormatSuccess("Content hash verified"))
	}
	var pretty any
	if err := json.Unmarshal(result.JSON, &pretty); err != nil {
		return err
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, string(out))
	return nil
}
