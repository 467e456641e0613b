package blockchain

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// ReceiptConfirmer waits for transactions by polling for their receipt.
// It adds no timeout of its own; the caller's context bounds the wait.
type ReceiptConfirmer struct {
	backend bind.DeployBackend
	log     *slog.Logger
}

// NewReceiptConfirmer creates a new confirmer
func NewReceiptConfirmer(backend Backend, log *slog.Logger) *ReceiptConfirmer {
	return &ReceiptConfirmer{backend: backend, log: log.With("component", "ReceiptConfirmer")}
}

// Confirm blocks until tx is mined and returns its receipt
func (c *ReceiptConfirmer) Confirm(ctx context.Context, tx *domain.PendingTx) (*types.Receipt, error) {
	c.log.Debug("waiting for transaction", "tx", tx.Hash.Hex(), "nonce", tx.Nonce)
	receipt, err := bind.WaitMined(ctx, c.backend, tx.Hash)
	if err != nil {
		return nil, err
	}
	c.log.Debug("transaction mined", "tx", tx.Hash.Hex(), "block", receipt.BlockNumber, "status", receipt.Status)
	return receipt, nil
}

var _ usecase.Confirmer = (*ReceiptConfirmer)(nil)
