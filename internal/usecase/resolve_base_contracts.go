package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// ResolveBaseContractsParams contains parameters for resolving base contracts
type ResolveBaseContractsParams struct {
	Network       string
	Configuration domain.DeploymentConfiguration
	Registry      *domain.VersionRegistry
	// ProbeCode enables the on-chain code check of every resolved address
	ProbeCode bool
}

// ResolveBaseContracts decides, per logical contract, what gets deployed and how
type ResolveBaseContracts struct {
	checker   CodeChecker
	artifacts ArtifactRepository
	log       *slog.Logger
}

// NewResolveBaseContracts creates a new resolver. checker may be nil, which disables probing.
func NewResolveBaseContracts(checker CodeChecker, artifacts ArtifactRepository, log *slog.Logger) *ResolveBaseContracts {
	return &ResolveBaseContracts{
		checker:   checker,
		artifacts: artifacts,
		log:       log.With("component", "ResolveBaseContracts"),
	}
}

// Run resolves all three contracts. Identical params and chain state give identical output.
func (uc *ResolveBaseContracts) Run(ctx context.Context, params ResolveBaseContractsParams) (domain.ResolvedBaseContracts, error) {
	out := make(domain.ResolvedBaseContracts, len(domain.AllContracts))
	for _, name := range domain.AllContracts {
		rc, err := uc.resolve(ctx, params, name)
		if err != nil {
			return nil, err
		}
		uc.log.Debug("resolved base contract",
			"contract", name, "mode", rc.Mode, "source", rc.Source,
			"version", rc.Version, "address", rc.Address.Hex(), "downgraded", rc.Downgraded)
		out[name] = rc
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ResolveBaseContracts) resolve(ctx context.Context, params ResolveBaseContractsParams, name domain.ContractName) (domain.ResolvedBaseContract, error) {
	override := params.Configuration.Override(name)
	resolutionErr := func(reason string) *domain.ResolutionError {
		return &domain.ResolutionError{Contract: name, Network: params.Network, Version: override.Version, Reason: reason}
	}

	// 1. caller supplied logic address
	if override.LibraryAddress != nil {
		addr := *override.LibraryAddress
		if override.DeployAsProxy != nil && !*override.DeployAsProxy {
			e := resolutionErr("a library address can only be used behind a proxy")
			e.Address = &addr
			return domain.ResolvedBaseContract{}, e
		}
		if params.ProbeCode {
			ok, err := uc.hasCode(ctx, addr)
			if err != nil {
				return domain.ResolvedBaseContract{}, err
			}
			if !ok {
				e := resolutionErr("no contract code at the supplied address")
				e.Address = &addr
				return domain.ResolvedBaseContract{}, e
			}
		}
		return domain.ResolvedBaseContract{
			Name:    name,
			Mode:    domain.ModeProxy,
			Source:  domain.SourceOverrideAddress,
			Address: addr,
		}, nil
	}

	// 2. caller supplied bytecode, deployed as a one-off
	if len(override.Bytecode) > 0 {
		mode := domain.ModeStandalone
		if override.DeployAsProxy != nil && *override.DeployAsProxy {
			mode = domain.ModeBaseAndProxy
		}
		return domain.ResolvedBaseContract{
			Name:     name,
			Mode:     mode,
			Source:   domain.SourceOverrideBytecode,
			Bytecode: override.Bytecode,
		}, nil
	}

	useProxy := params.Registry.UsesProxyByDefault(params.Network, name)
	if override.DeployAsProxy != nil {
		useProxy = *override.DeployAsProxy
	}

	// 3. explicit version, 4. registry default
	var (
		version string
		addr    common.Address
		source  domain.ResolutionSource
		found   bool
	)
	if override.Version != "" {
		addr, found = params.Registry.Address(params.Network, name, override.Version)
		if !found {
			return domain.ResolvedBaseContract{}, resolutionErr("version not found in registry")
		}
		version, source = override.Version, domain.SourceRegistryVersion
	} else {
		version, addr, found = params.Registry.DefaultAddress(params.Network, name)
		source = domain.SourceRegistryDefault
	}

	downgraded := false
	if found && useProxy {
		hasCode := true
		if params.ProbeCode {
			var err error
			if hasCode, err = uc.hasCode(ctx, addr); err != nil {
				return domain.ResolvedBaseContract{}, err
			}
		}
		if hasCode {
			return domain.ResolvedBaseContract{
				Name:    name,
				Mode:    domain.ModeProxy,
				Source:  source,
				Version: version,
				Address: addr,
			}, nil
		}
		uc.log.Warn("registry address has no code, deploying fresh", "contract", name, "network", params.Network, "address", addr.Hex())
		downgraded = true
	}

	return uc.fresh(ctx, name, override, version, downgraded)
}

// fresh deploys from artifact bytecode. Without an explicit proxy request the result is standalone.
func (uc *ResolveBaseContracts) fresh(ctx context.Context, name domain.ContractName, override domain.ContractOverride, version string, downgraded bool) (domain.ResolvedBaseContract, error) {
	base := override.DeployAsProxy != nil && *override.DeployAsProxy
	mode := domain.ModeStandalone
	if base {
		mode = domain.ModeBaseAndProxy
	}
	if uc.artifacts == nil {
		return domain.ResolvedBaseContract{}, &domain.ResolutionError{Contract: name, Reason: domain.ErrMissingBytecode.Error()}
	}
	bytecode, err := uc.artifacts.Bytecode(ctx, name, base)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, domain.ErrNotFound) {
			reason = fmt.Sprintf("%s: no artifact for %s", domain.ErrMissingBytecode, name)
		}
		return domain.ResolvedBaseContract{}, &domain.ResolutionError{Contract: name, Version: version, Reason: reason}
	}
	return domain.ResolvedBaseContract{
		Name:       name,
		Mode:       mode,
		Source:     domain.SourceFresh,
		Version:    version,
		Bytecode:   bytecode,
		Downgraded: downgraded,
	}, nil
}

func (uc *ResolveBaseContracts) hasCode(ctx context.Context, addr common.Address) (bool, error) {
	if uc.checker == nil {
		return true, nil
	}
	ok, err := uc.checker.HasCode(ctx, addr)
	if err != nil {
		return false, fmt.Errorf("failed to probe code at %s: %w", addr.Hex(), err)
	}
	return ok, nil
}
