package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// DecodeMetadataResult is a decoded metadata value, with the document when fetched
type DecodeMetadataResult struct {
	domain.JSONURL
	JSON     json.RawMessage `json:"json,omitempty"`
	Verified bool            `json:"verified"`
}

// DecodeMetadata decodes on-chain metadata values and optionally resolves the document
type DecodeMetadata struct {
	encoder MetadataEncoder
	fetcher MetadataFetcher
}

// NewDecodeMetadata creates a new DecodeMetadata use case. fetcher may be nil.
func NewDecodeMetadata(encoder MetadataEncoder, fetcher MetadataFetcher) *DecodeMetadata {
	return &DecodeMetadata{encoder: encoder, fetcher: fetcher}
}

// Run decodes data. With fetch set it downloads the document and checks its hash.
func (uc *DecodeMetadata) Run(ctx context.Context, data []byte, fetch bool) (*DecodeMetadataResult, error) {
	decoded, err := uc.encoder.Decode(data)
	if err != nil {
		return nil, err
	}
	result := &DecodeMetadataResult{JSONURL: *decoded}
	if !fetch {
		return result, nil
	}
	if uc.fetcher == nil {
		return nil, fmt.Errorf("no metadata fetcher configured")
	}

	doc, err := uc.fetcher.Fetch(ctx, decoded.URL)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(crypto.Keccak256(doc), decoded.Hash) {
		return nil, fmt.Errorf("%w: content at %s", domain.ErrHashMismatch, decoded.URL)
	}
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: content at %s is not JSON", domain.ErrInvalidMetadata, decoded.URL)
	}
	result.JSON = doc
	result.Verified = true
	return result, nil
}
