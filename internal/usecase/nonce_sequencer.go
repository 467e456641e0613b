package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// DefaultGasBuffer is added on top of every gas estimate
const DefaultGasBuffer uint64 = 100_000

// NonceSequencer is the single serialization point for outgoing transactions of one signer.
// Nonce allocation and broadcast happen under the same lock, and the local counter only
// advances when the signer accepted the transaction.
type NonceSequencer struct {
	signer    Signer
	gasBuffer uint64
	log       *slog.Logger

	mu     sync.Mutex
	next   uint64
	seeded bool
}

// NewNonceSequencer creates a sequencer for signer. A zero gasBuffer selects DefaultGasBuffer.
func NewNonceSequencer(signer Signer, gasBuffer uint64, log *slog.Logger) *NonceSequencer {
	if gasBuffer == 0 {
		gasBuffer = DefaultGasBuffer
	}
	return &NonceSequencer{
		signer:    signer,
		gasBuffer: gasBuffer,
		log:       log.With("component", "NonceSequencer"),
	}
}

// Address returns the signer's address
func (s *NonceSequencer) Address() common.Address {
	return s.signer.Address()
}

// Send estimates gas when needed, assigns the next nonce and broadcasts the transaction
func (s *NonceSequencer) Send(ctx context.Context, req domain.TxRequest) (*domain.PendingTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		nonce, err := s.signer.PendingNonce(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pending nonce of %s: %w", s.signer.Address().Hex(), err)
		}
		s.next = nonce
		s.seeded = true
	}

	if req.Gas == 0 {
		estimate, err := s.signer.EstimateGas(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		req.Gas = estimate + s.gasBuffer
	}

	tx, err := s.signer.SendTransaction(ctx, req, s.next)
	if err != nil {
		if isNonceConflict(err) {
			// Someone else used this key; resync from the node on the next send.
			s.seeded = false
			return nil, fmt.Errorf("%w: nonce %d of %s: %v", domain.ErrNonceConflict, s.next, s.signer.Address().Hex(), err)
		}
		return nil, err
	}

	s.log.Debug("transaction sent", "nonce", s.next, "tx", tx.Hash.Hex(), "gas", req.Gas)
	s.next++
	return tx, nil
}

// Reset forces the next Send to reseed from the signer's pending nonce
func (s *NonceSequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeded = false
}

func isNonceConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "already known") ||
		strings.Contains(msg, "replacement transaction underpriced")
}
