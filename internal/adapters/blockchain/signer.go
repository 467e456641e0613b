package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// baseFeeFactor scales the latest base fee to get the fee cap
const baseFeeFactor = 2

// KeySigner signs EIP-1559 transactions with a local private key
type KeySigner struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
}

// NewKeySigner creates a signer from a hex encoded private key
func NewKeySigner(backend Backend, privateKeyHex string, chainID uint64) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeySigner{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
	}, nil
}

// Address returns the signing address
func (s *KeySigner) Address() common.Address {
	return s.from
}

// PendingNonce returns the account nonce including pending transactions
func (s *KeySigner) PendingNonce(ctx context.Context) (uint64, error) {
	return s.backend.PendingNonceAt(ctx, s.from)
}

// EstimateGas estimates the gas used by req when sent from the signer
func (s *KeySigner) EstimateGas(ctx context.Context, req domain.TxRequest) (uint64, error) {
	return s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    req.To,
		Data:  req.Data,
		Value: req.Value,
	})
}

// SendTransaction signs req with the given nonce and broadcasts it
func (s *KeySigner) SendTransaction(ctx context.Context, req domain.TxRequest, nonce uint64) (*domain.PendingTx, error) {
	gasFeeCap, gasTipCap, err := s.fees(ctx)
	if err != nil {
		return nil, err
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		To:        req.To,
		Gas:       req.Gas,
		GasFeeCap: gasFeeCap,
		GasTipCap: gasTipCap,
		Value:     value,
		Data:      req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return &domain.PendingTx{
		Hash:  signed.Hash(),
		From:  s.from,
		To:    req.To,
		Nonce: nonce,
		Gas:   req.Gas,
		Tx:    signed,
	}, nil
}

// fees returns gasFeeCap and gasTipCap from the latest header and the node's tip suggestion
func (s *KeySigner) fees(ctx context.Context) (*big.Int, *big.Int, error) {
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch latest header: %w", err)
	}
	gasTipCap, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	gasFeeCap := new(big.Int).Mul(baseFee, big.NewInt(baseFeeFactor))
	gasFeeCap.Add(gasFeeCap, gasTipCap)
	return gasFeeCap, gasTipCap, nil
}

var _ usecase.Signer = (*KeySigner)(nil)
