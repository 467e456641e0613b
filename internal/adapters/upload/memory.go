package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// MemoryUploader keeps content in memory, addressed by its keccak256 hash.
// It also serves as a MetadataFetcher for what it stored.
type MemoryUploader struct {
	mu      sync.RWMutex
	content map[string][]byte
}

// NewMemoryUploader creates an empty in-memory store
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{content: make(map[string][]byte)}
}

// Upload stores data and returns a memory:// URL
func (u *MemoryUploader) Upload(_ context.Context, _ string, data []byte, _ string) (string, error) {
	url := fmt.Sprintf("memory://%x", crypto.Keccak256(data))
	u.mu.Lock()
	defer u.mu.Unlock()
	u.content[url] = append([]byte(nil), data...)
	return url, nil
}

// Fetch returns content previously stored under url
func (u *MemoryUploader) Fetch(_ context.Context, url string) ([]byte, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.content[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
	}
	return append([]byte(nil), data...), nil
}

// Len returns the number of stored items
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.content)
}

var (
	_ usecase.Uploader        = (*MemoryUploader)(nil)
	_ usecase.MetadataFetcher = (*MemoryUploader)(nil)
)
