package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/profile-factory/internal/domain/bindings"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// CheckerAdapter probes contract code and reads account storage
type CheckerAdapter struct {
	backend Backend
	account *bindings.Account
	timeout time.Duration
}

// NewCheckerAdapter creates a new blockchain checker adapter
func NewCheckerAdapter(backend Backend) *CheckerAdapter {
	return &CheckerAdapter{
		backend: backend,
		account: bindings.NewAccount(),
		timeout: 5 * time.Second,
	}
}

// HasCode reports whether a contract exists at the given address
func (c *CheckerAdapter) HasCode(ctx context.Context, addr common.Address) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return len(code) > 0, nil
}

// GetData reads key from the account's key-value store
func (c *CheckerAdapter) GetData(ctx context.Context, account common.Address, key common.Hash) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &account, Data: c.account.PackGetData(key)}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getData: %w", err)
	}
	return c.account.UnpackGetData(out)
}

// Ensure the adapter implements the interfaces
var (
	_ usecase.CodeChecker = (*CheckerAdapter)(nil)
	_ usecase.DataReader  = (*CheckerAdapter)(nil)
)
