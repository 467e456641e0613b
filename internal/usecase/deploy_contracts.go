package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/bindings"
	"golang.org/x/sync/errgroup"
)

// DeployContracts puts the three contracts on chain. The account and the permission
// manager are deployed one after the other; the delegate is deployed alongside them.
type DeployContracts struct {
	tx                transactor
	account           *bindings.Account
	permissionManager *bindings.PermissionManager
	delegate          *bindings.Delegate
	log               *slog.Logger
}

// NewDeployContracts creates a new deployment stage
func NewDeployContracts(sender TransactionSender, confirmer Confirmer, log *slog.Logger) *DeployContracts {
	return &DeployContracts{
		tx:                transactor{sender: sender, confirmer: confirmer},
		account:           bindings.NewAccount(),
		permissionManager: bindings.NewPermissionManager(),
		delegate:          bindings.NewDelegate(),
		log:               log.With("component", "DeployContracts"),
	}
}

// DeployedContracts collects stage results; safe for concurrent use
type DeployedContracts struct {
	mu     sync.Mutex
	result domain.DeployedContractsResult
}

func (d *DeployedContracts) set(name domain.ContractName, addr common.Address, receipt *types.Receipt) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		d.result = make(domain.DeployedContractsResult)
	}
	d.result[name] = domain.DeployedContract{Address: addr, Receipt: receipt}
}

// Result returns a snapshot of the deployed contracts
func (d *DeployedContracts) Result() domain.DeployedContractsResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result.Clone()
}

// Run deploys the contracts described by resolved. On failure the returned
// DeployedContracts still lists whatever was confirmed.
func (uc *DeployContracts) Run(ctx context.Context, resolved domain.ResolvedBaseContracts, emit EventEmitter) (*DeployedContracts, error) {
	deployed := &DeployedContracts{}
	deployer := uc.tx.sender.Address()

	var g errgroup.Group
	g.Go(func() error {
		accountAddr, err := uc.deployOne(ctx, emit, deployed, resolved[domain.ContractAccount],
			uc.account.PackConstructor(deployer),
			uc.account.PackInitialize(deployer))
		if err != nil {
			return err
		}
		_, err = uc.deployOne(ctx, emit, deployed, resolved[domain.ContractPermissionManager],
			uc.permissionManager.PackConstructor(accountAddr),
			uc.permissionManager.PackInitialize(accountAddr))
		return err
	})
	g.Go(func() error {
		_, err := uc.deployOne(ctx, emit, deployed, resolved[domain.ContractDelegate],
			uc.delegate.PackConstructor(),
			uc.delegate.PackInitialize())
		return err
	})

	if err := g.Wait(); err != nil {
		return deployed, err
	}
	return deployed, nil
}

// deployOne deploys a single contract according to its mode and returns the address callers should use
func (uc *DeployContracts) deployOne(ctx context.Context, emit EventEmitter, deployed *DeployedContracts, rc domain.ResolvedBaseContract, ctorArgs, initCall []byte) (common.Address, error) {
	log := uc.log.With("contract", rc.Name, "mode", rc.Mode)

	switch rc.Mode {
	case domain.ModeStandalone:
		log.Info("deploying standalone contract")
		receipt, err := uc.tx.execute(ctx, emit, domain.DeploymentEvent{
			Kind:         domain.EventContractDeployment,
			ContractName: rc.Name,
			FunctionName: domain.FunctionDeploy,
		}, domain.TxRequest{Data: bindings.WithConstructorArgs(rc.Bytecode, ctorArgs)})
		if err != nil {
			return common.Address{}, err
		}
		deployed.set(rc.Name, receipt.ContractAddress, receipt)
		return receipt.ContractAddress, nil

	case domain.ModeBaseAndProxy:
		log.Info("deploying base contract")
		receipt, err := uc.tx.execute(ctx, emit, domain.DeploymentEvent{
			Kind:         domain.EventBaseContractDeployment,
			ContractName: rc.Name,
			FunctionName: domain.FunctionDeploy,
		}, domain.TxRequest{Data: rc.Bytecode})
		if err != nil {
			return common.Address{}, err
		}
		return uc.deployProxy(ctx, emit, deployed, rc.Name, receipt.ContractAddress, initCall)

	case domain.ModeProxy:
		return uc.deployProxy(ctx, emit, deployed, rc.Name, rc.Address, initCall)
	}
	return common.Address{}, fmt.Errorf("%w: %s has mode %q", domain.ErrUnresolvedContract, rc.Name, rc.Mode)
}

func (uc *DeployContracts) deployProxy(ctx context.Context, emit EventEmitter, deployed *DeployedContracts, name domain.ContractName, logic common.Address, initCall []byte) (common.Address, error) {
	uc.log.Info("deploying proxy", "contract", name, "logic", logic.Hex())
	receipt, err := uc.tx.execute(ctx, emit, domain.DeploymentEvent{
		Kind:         domain.EventProxyDeployment,
		ContractName: name,
		FunctionName: domain.FunctionDeploy,
	}, domain.TxRequest{Data: bindings.MinimalProxyInitCode(logic)})
	if err != nil {
		return common.Address{}, err
	}
	proxy := receipt.ContractAddress
	deployed.set(name, proxy, receipt)

	if _, err := uc.tx.execute(ctx, emit, domain.DeploymentEvent{
		Kind:         domain.EventProxyDeployment,
		ContractName: name,
		FunctionName: domain.FunctionInitialize,
	}, domain.TxRequest{To: &proxy, Data: initCall}); err != nil {
		return common.Address{}, err
	}
	return proxy, nil
}
