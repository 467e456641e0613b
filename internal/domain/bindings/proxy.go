package bindings

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

var (
	minimalProxyPrefix   = common.FromHex("0x3d602d80600a3d3981f3363d3d373d3d3d363d73")
	minimalProxySuffix   = common.FromHex("0x5af43d82803e903d91602b57fd5bf3")
	minimalRuntimePrefix = common.FromHex("0x363d3d373d3d3d363d73")
)

// MinimalProxyInitCode returns the EIP-1167 creation code of a proxy forwarding to logic
func MinimalProxyInitCode(logic common.Address) []byte {
	code := make([]byte, 0, len(minimalProxyPrefix)+common.AddressLength+len(minimalProxySuffix))
	code = append(code, minimalProxyPrefix...)
	code = append(code, logic.Bytes()...)
	code = append(code, minimalProxySuffix...)
	return code
}

// MinimalProxyTarget returns the logic address of EIP-1167 runtime code
func MinimalProxyTarget(runtime []byte) (common.Address, bool) {
	if len(runtime) != len(minimalRuntimePrefix)+common.AddressLength+len(minimalProxySuffix) {
		return common.Address{}, false
	}
	if !bytes.HasPrefix(runtime, minimalRuntimePrefix) || !bytes.HasSuffix(runtime, minimalProxySuffix) {
		return common.Address{}, false
	}
	return common.BytesToAddress(runtime[len(minimalRuntimePrefix) : len(minimalRuntimePrefix)+common.AddressLength]), true
}

// WithConstructorArgs appends ABI encoded constructor arguments to creation code
func WithConstructorArgs(bytecode, args []byte) []byte {
	out := make([]byte, 0, len(bytecode)+len(args))
	out = append(out, bytecode...)
	return append(out, args...)
}
