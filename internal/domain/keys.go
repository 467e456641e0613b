package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Storage keys written to the account. These are wire-format constants shared
// with every other client of the same contracts and must not change.
var (
	// MetadataKey holds the encoded profile metadata (JSONURL)
	MetadataKey = common.HexToHash("0x5ef83ad9559033e6e941db7d7c495acdce616347d28e90c7ce47cbfcfcad3bc5")

	// DelegateKey holds the address of the receiver delegate contract
	DelegateKey = common.HexToHash("0x0cfc51aec37c55a4d0b1a65c6255c4bf2fbdf6277f3cc0730c45b828b6db8b47")

	// ControllersArrayKey holds the controller array length; its first 16 bytes prefix every element key
	ControllersArrayKey = common.HexToHash("0xdf30dba06db6a30e65354d9a64c609861f089545ca58c6b4dbe31a5f338cb0e3")

	// ControllerPermissionsPrefix is followed by the 20 byte controller address
	ControllerPermissionsPrefix = common.FromHex("0x4b80742de2bf82acb3630000")
)

const (
	// arrayPrefixLength is the part of an array key kept in element keys
	arrayPrefixLength = 16
	// arrayIndexLength is the big-endian index appended to the prefix
	arrayIndexLength = 16
)

// ArrayElementKey returns the key of element index of the array stored under arrayKey
func ArrayElementKey(arrayKey common.Hash, index uint64) common.Hash {
	var key common.Hash
	copy(key[:arrayPrefixLength], arrayKey[:arrayPrefixLength])
	idx := new(big.Int).SetUint64(index).Bytes()
	copy(key[arrayPrefixLength+arrayIndexLength-len(idx):], idx)
	return key
}

// ControllerElementKey returns the controller array element key for index
func ControllerElementKey(index uint64) common.Hash {
	return ArrayElementKey(ControllersArrayKey, index)
}

// PermissionKey returns the permission key of a controller
func PermissionKey(controller common.Address) common.Hash {
	var key common.Hash
	copy(key[:], ControllerPermissionsPrefix)
	copy(key[len(ControllerPermissionsPrefix):], controller.Bytes())
	return key
}

// EncodeArrayLength encodes an array length as a 16 byte big-endian uint128
func EncodeArrayLength(n uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(n).Bytes(), arrayIndexLength)
}

// DecodeArrayLength decodes a stored array length
func DecodeArrayLength(value []byte) (uint64, error) {
	if len(value) == 0 {
		return 0, nil
	}
	if len(value) != arrayIndexLength && len(value) != 32 {
		return 0, fmt.Errorf("array length must be 16 or 32 bytes, got %d", len(value))
	}
	v := new(big.Int).SetBytes(value)
	if !v.IsUint64() {
		return 0, fmt.Errorf("array length 0x%x overflows uint64", value)
	}
	return v.Uint64(), nil
}

// DataEntry is a single key/value write on the account storage
type DataEntry struct {
	Key   common.Hash `json:"key"`
	Value []byte      `json:"value"`

	// Label is a human readable description, not written on-chain
	Label string `json:"label,omitempty"`
}

// SplitEntries returns keys and values as parallel slices, ready for setDataBatch
func SplitEntries(entries []DataEntry) ([][32]byte, [][]byte) {
	keys := make([][32]byte, len(entries))
	values := make([][]byte, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		values[i] = e.Value
	}
	return keys, values
}
