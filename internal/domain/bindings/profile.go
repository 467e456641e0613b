package bindings

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
)

// AccountMetaData contains the subset of the account contract ABI used by the deployer.
var AccountMetaData = bind.MetaData{
	ABI: `[
{"type":"constructor","inputs":[{"name":"initialOwner","type":"address"}],"stateMutability":"payable"},
{"type":"function","name":"initialize","inputs":[{"name":"newOwner","type":"address"}],"outputs":[],"stateMutability":"payable"},
{"type":"function","name":"setData","inputs":[{"name":"dataKey","type":"bytes32"},{"name":"dataValue","type":"bytes"}],"outputs":[],"stateMutability":"payable"},
{"type":"function","name":"setDataBatch","inputs":[{"name":"dataKeys","type":"bytes32[]"},{"name":"dataValues","type":"bytes[]"}],"outputs":[],"stateMutability":"payable"},
{"type":"function","name":"getData","inputs":[{"name":"dataKey","type":"bytes32"}],"outputs":[{"name":"dataValue","type":"bytes"}],"stateMutability":"view"},
{"type":"function","name":"getDataBatch","inputs":[{"name":"dataKeys","type":"bytes32[]"}],"outputs":[{"name":"dataValues","type":"bytes[]"}],"stateMutability":"view"},
{"type":"function","name":"transferOwnership","inputs":[{"name":"newOwner","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"acceptOwnership","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
{"type":"function","name":"pendingOwner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
]`,
	ID: "Account",
}

// PermissionManagerMetaData contains the subset of the permission manager ABI used by the deployer.
var PermissionManagerMetaData = bind.MetaData{
	ABI: `[
{"type":"constructor","inputs":[{"name":"target_","type":"address"}],"stateMutability":"nonpayable"},
{"type":"function","name":"initialize","inputs":[{"name":"target_","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"execute","inputs":[{"name":"payload","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}],"stateMutability":"payable"},
{"type":"function","name":"target","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
]`,
	ID: "PermissionManager",
}

// DelegateMetaData contains the subset of the receiver delegate ABI used by the deployer.
var DelegateMetaData = bind.MetaData{
	ABI: `[
{"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"}
]`,
	ID: "Delegate",
}

// Account is the calldata packer for the account contract
type Account struct {
	abi abi.ABI
}

// NewAccount creates a new instance of Account.
func NewAccount() *Account {
	return &Account{abi: mustParse(&AccountMetaData)}
}

// Instance creates a wrapper for a deployed contract instance at the given address.
func (c *Account) Instance(backend bind.ContractBackend, addr common.Address) *bind.BoundContract {
	return bind.NewBoundContract(addr, c.abi, backend, backend, backend)
}

// PackConstructor packs the standalone deployment arguments
func (c *Account) PackConstructor(initialOwner common.Address) []byte {
	return mustPack(c.abi, "", initialOwner)
}

// PackInitialize packs initialize(address)
func (c *Account) PackInitialize(newOwner common.Address) []byte {
	return mustPack(c.abi, "initialize", newOwner)
}

// PackSetData packs setData(bytes32,bytes)
func (c *Account) PackSetData(key common.Hash, value []byte) []byte {
	if value == nil {
		value = []byte{}
	}
	return mustPack(c.abi, "setData", [32]byte(key), value)
}

// TryPackSetDataBatch packs setDataBatch(bytes32[],bytes[]); the slices must have equal length
func (c *Account) TryPackSetDataBatch(keys [][32]byte, values [][]byte) ([]byte, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("setDataBatch: %d keys but %d values", len(keys), len(values))
	}
	return c.abi.Pack("setDataBatch", keys, values)
}

// UnpackSetDataInput returns the writes of a setData or setDataBatch call
func (c *Account) UnpackSetDataInput(calldata []byte) ([]common.Hash, [][]byte, error) {
	if len(calldata) < 4 {
		return nil, nil, errors.New("calldata too short")
	}
	method, err := c.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, nil, err
	}

	switch method.Name {
	case "setData":
		key := *abi.ConvertType(args[0], new([32]byte)).(*[32]byte)
		value := *abi.ConvertType(args[1], new([]byte)).(*[]byte)
		return []common.Hash{key}, [][]byte{value}, nil
	case "setDataBatch":
		keys := *abi.ConvertType(args[0], new([][32]byte)).(*[][32]byte)
		values := *abi.ConvertType(args[1], new([][]byte)).(*[][]byte)
		hashes := make([]common.Hash, len(keys))
		for i, k := range keys {
			hashes[i] = k
		}
		return hashes, values, nil
	}
	return nil, nil, fmt.Errorf("expected setData or setDataBatch, got %s", method.Name)
}

// PackGetData packs getData(bytes32)
func (c *Account) PackGetData(key common.Hash) []byte {
	return mustPack(c.abi, "getData", [32]byte(key))
}

// UnpackGetData unpacks the return value of getData
func (c *Account) UnpackGetData(data []byte) ([]byte, error) {
	out, err := c.abi.Unpack("getData", data)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]byte)).(*[]byte), nil
}

// PackTransferOwnership packs transferOwnership(address)
func (c *Account) PackTransferOwnership(newOwner common.Address) []byte {
	return mustPack(c.abi, "transferOwnership", newOwner)
}

// PackAcceptOwnership packs acceptOwnership()
func (c *Account) PackAcceptOwnership() []byte {
	return mustPack(c.abi, "acceptOwnership")
}

// PackOwner packs owner()
func (c *Account) PackOwner() []byte {
	return mustPack(c.abi, "owner")
}

// UnpackOwner unpacks the return value of owner
func (c *Account) UnpackOwner(data []byte) (common.Address, error) {
	out, err := c.abi.Unpack("owner", data)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// PermissionManager is the calldata packer for the permission manager contract
type PermissionManager struct {
	abi abi.ABI
}

// NewPermissionManager creates a new instance of PermissionManager.
func NewPermissionManager() *PermissionManager {
	return &PermissionManager{abi: mustParse(&PermissionManagerMetaData)}
}

// PackConstructor packs the standalone deployment arguments
func (c *PermissionManager) PackConstructor(target common.Address) []byte {
	return mustPack(c.abi, "", target)
}

// PackInitialize packs initialize(address)
func (c *PermissionManager) PackInitialize(target common.Address) []byte {
	return mustPack(c.abi, "initialize", target)
}

// PackExecute packs execute(bytes); payload is relayed to the account
func (c *PermissionManager) PackExecute(payload []byte) []byte {
	return mustPack(c.abi, "execute", payload)
}

// UnpackExecuteInput returns the payload of an execute call
func (c *PermissionManager) UnpackExecuteInput(calldata []byte) ([]byte, error) {
	if len(calldata) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := c.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "execute" {
		return nil, fmt.Errorf("expected execute, got %s", method.Name)
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(args[0], new([]byte)).(*[]byte), nil
}

// Delegate is the calldata packer for the receiver delegate contract
type Delegate struct {
	abi abi.ABI
}

// NewDelegate creates a new instance of Delegate.
func NewDelegate() *Delegate {
	return &Delegate{abi: mustParse(&DelegateMetaData)}
}

// PackConstructor packs the (empty) standalone deployment arguments
func (c *Delegate) PackConstructor() []byte {
	return mustPack(c.abi, "")
}

// PackInitialize packs initialize()
func (c *Delegate) PackInitialize() []byte {
	return mustPack(c.abi, "initialize")
}

// MethodName returns the name of the method called by calldata, if it belongs to any
// of the three contracts. Used to label transactions in tests and logs.
func MethodName(calldata []byte) (string, bool) {
	if len(calldata) < 4 {
		return "", false
	}
	for _, md := range []*bind.MetaData{&AccountMetaData, &PermissionManagerMetaData, &DelegateMetaData} {
		parsed := mustParse(md)
		if m, err := parsed.MethodById(calldata[:4]); err == nil {
			return m.Name, true
		}
	}
	return "", false
}

func mustParse(md *bind.MetaData) abi.ABI {
	parsed, err := md.ParseABI()
	if err != nil {
		panic(errors.New("invalid ABI: " + err.Error()))
	}
	return *parsed
}

func mustPack(parsed abi.ABI, method string, args ...interface{}) []byte {
	enc, err := parsed.Pack(method, args...)
	if err != nil {
		panic(err)
	}
	return enc
}
