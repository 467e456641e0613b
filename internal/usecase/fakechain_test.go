package usecase_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/domain/bindings"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

var (
	deployerAddr = common.HexToAddress("0xD3D3D3D3D3D3D3D3D3D3D3D3D3D3D3D3D3D3D3D3")
	controllerA  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	controllerB  = common.HexToAddress("0x2222222222222222222222222222222222222222")

	accountLogic  = common.HexToAddress("0xA000000000000000000000000000000000000001")
	managerLogic  = common.HexToAddress("0xA000000000000000000000000000000000000002")
	delegateLogic = common.HexToAddress("0xA000000000000000000000000000000000000003")

	proxyPrefix = bindings.MinimalProxyInitCode(common.Address{})[:20]
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sentTx is a transaction accepted by the fake chain
type sentTx struct {
	Nonce uint64
	To    *common.Address
	Data  []byte
	Gas   uint64
	Hash  common.Hash
	// Label is "create", "proxy", a method name, or "execute:<inner method>"
	Label string
}

// fakeChain is an in-memory signer, confirmer, code checker and data reader.
// Creation transactions get CREATE addresses; setData writes and ownership
// calls, direct or relayed through execute, update the fake state.
type fakeChain struct {
	mu           sync.Mutex
	from         common.Address
	pendingNonce uint64
	sent         []sentTx
	receipts     map[common.Hash]*types.Receipt
	code         map[common.Address]bool
	storage      map[common.Address]map[common.Hash][]byte
	owner        map[common.Address]common.Address
	pendingOwner map[common.Address]common.Address
	managed      map[common.Address]common.Address

	// sendErr rejects a submission when it returns an error
	sendErr func(tx sentTx) error
	// revert makes a confirmed transaction fail
	revert func(tx sentTx) bool
	// onConfirm runs before a receipt is returned
	onConfirm func(tx sentTx)

	account *bindings.Account
	manager *bindings.PermissionManager
}

func newFakeChain() *fakeChain {
	c := &fakeChain{
		from:         deployerAddr,
		receipts:     make(map[common.Hash]*types.Receipt),
		code:         make(map[common.Address]bool),
		storage:      make(map[common.Address]map[common.Hash][]byte),
		owner:        make(map[common.Address]common.Address),
		pendingOwner: make(map[common.Address]common.Address),
		managed:      make(map[common.Address]common.Address),
		account:      bindings.NewAccount(),
		manager:      bindings.NewPermissionManager(),
	}
	for _, addr := range []common.Address{accountLogic, managerLogic, delegateLogic} {
		c.code[addr] = true
	}
	return c
}

func (c *fakeChain) Address() common.Address { return c.from }

func (c *fakeChain) PendingNonce(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingNonce, nil
}

func (c *fakeChain) EstimateGas(context.Context, domain.TxRequest) (uint64, error) {
	return 50_000, nil
}

func (c *fakeChain) SendTransaction(_ context.Context, req domain.TxRequest, nonce uint64) (*domain.PendingTx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	tx := sentTx{
		Nonce: nonce,
		To:    req.To,
		Data:  req.Data,
		Gas:   req.Gas,
		Hash:  crypto.Keccak256Hash(c.from.Bytes(), n[:], req.Data),
		Label: c.label(req),
	}
	if c.sendErr != nil {
		if err := c.sendErr(tx); err != nil {
			return nil, err
		}
	}
	if nonce < c.pendingNonce {
		return nil, fmt.Errorf("nonce too low: next nonce %d, tx nonce %d", c.pendingNonce, nonce)
	}
	c.pendingNonce = nonce + 1
	c.sent = append(c.sent, tx)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash,
		BlockNumber: big.NewInt(int64(len(c.sent))),
		GasUsed:     req.Gas,
	}
	if c.revert != nil && c.revert(tx) {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		c.apply(tx, receipt)
	}
	c.receipts[tx.Hash] = receipt

	return &domain.PendingTx{Hash: tx.Hash, From: c.from, To: req.To, Nonce: nonce, Gas: req.Gas}, nil
}

func (c *fakeChain) label(req domain.TxRequest) string {
	if req.To == nil {
		if bytes.HasPrefix(req.Data, proxyPrefix) {
			return "proxy"
		}
		return "create"
	}
	name, _ := bindings.MethodName(req.Data)
	if name == "execute" {
		payload, err := c.manager.UnpackExecuteInput(req.Data)
		if err == nil {
			inner, _ := bindings.MethodName(payload)
			return "execute:" + inner
		}
	}
	return name
}

// apply updates the fake state for a successful transaction. Caller holds mu.
func (c *fakeChain) apply(tx sentTx, receipt *types.Receipt) {
	if tx.To == nil {
		addr := crypto.CreateAddress(c.from, tx.Nonce)
		c.code[addr] = true
		receipt.ContractAddress = addr
		return
	}
	c.call(c.from, *tx.To, tx.Data)
}

func (c *fakeChain) call(caller, to common.Address, data []byte) {
	name, _ := bindings.MethodName(data)
	switch name {
	case "setData", "setDataBatch":
		keys, values, err := c.account.UnpackSetDataInput(data)
		if err != nil {
			return
		}
		if c.storage[to] == nil {
			c.storage[to] = make(map[common.Hash][]byte)
		}
		for i, k := range keys {
			c.storage[to][k] = values[i]
		}
	case "transferOwnership":
		newOwner := common.BytesToAddress(data[4:36])
		c.pendingOwner[to] = newOwner
		c.managed[newOwner] = to
	case "acceptOwnership":
		if c.pendingOwner[to] == caller {
			c.owner[to] = caller
			delete(c.pendingOwner, to)
		}
	case "execute":
		payload, err := c.manager.UnpackExecuteInput(data)
		if err != nil {
			return
		}
		if target, ok := c.managed[to]; ok {
			c.call(to, target, payload)
		}
	}
}

func (c *fakeChain) Confirm(ctx context.Context, tx *domain.PendingTx) (*types.Receipt, error) {
	c.mu.Lock()
	receipt, ok := c.receipts[tx.Hash]
	var sent sentTx
	for _, s := range c.sent {
		if s.Hash == tx.Hash {
			sent = s
		}
	}
	hook := c.onConfirm
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", tx.Hash.Hex())
	}
	if hook != nil {
		hook(sent)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := *receipt
	return &cp, nil
}

func (c *fakeChain) HasCode(_ context.Context, addr common.Address) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[addr], nil
}

func (c *fakeChain) GetData(_ context.Context, account common.Address, key common.Hash) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage[account][key], nil
}

// Sent returns the accepted transactions in nonce order
func (c *fakeChain) Sent() []sentTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentTx(nil), c.sent...)
}

// Labels returns the labels of the accepted transactions
func (c *fakeChain) Labels() []string {
	sent := c.Sent()
	out := make([]string, len(sent))
	for i, tx := range sent {
		out[i] = tx.Label
	}
	return out
}

func (c *fakeChain) Owner(account common.Address) common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner[account]
}

// fakeArtifacts serves fixed creation code per contract
type fakeArtifacts struct {
	missing map[domain.ContractName]bool
}

func (a fakeArtifacts) Bytecode(_ context.Context, name domain.ContractName, base bool) ([]byte, error) {
	if a.missing[name] {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingBytecode, name)
	}
	code := []byte("code:" + string(name))
	if base {
		code = append(code, ":base"...)
	}
	return code, nil
}

// testRegistry lists the three logic contracts on network "42" with proxies enabled
func testRegistry() *domain.VersionRegistry {
	entry := func(addr common.Address) domain.ContractVersions {
		return domain.ContractVersions{
			DefaultVersion: "0.14.0",
			Proxy:          true,
			Versions: map[string]common.Address{
				"0.12.1": common.BytesToAddress(append(addr.Bytes()[:19], 0xff)),
				"0.14.0": addr,
			},
		}
	}
	return domain.NewVersionRegistry(map[string]map[domain.ContractName]domain.ContractVersions{
		"42": {
			domain.ContractAccount:           entry(accountLogic),
			domain.ContractPermissionManager: entry(managerLogic),
			domain.ContractDelegate:          entry(delegateLogic),
		},
	})
}

var (
	_ usecase.Signer      = (*fakeChain)(nil)
	_ usecase.Confirmer   = (*fakeChain)(nil)
	_ usecase.CodeChecker = (*fakeChain)(nil)
	_ usecase.DataReader  = (*fakeChain)(nil)
)
