package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// JSONURLEncoder encodes metadata as hash-function tag + keccak256 hash + URL
type JSONURLEncoder struct{}

// NewJSONURLEncoder creates a new encoder
func NewJSONURLEncoder() *JSONURLEncoder {
	return &JSONURLEncoder{}
}

// Encode hashes doc exactly as given and appends the URL
func (JSONURLEncoder) Encode(doc json.RawMessage, url string) ([]byte, error) {
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: document is not valid JSON", domain.ErrInvalidMetadata)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL", domain.ErrInvalidMetadata)
	}
	out := make([]byte, 0, len(domain.JSONURLPrefix)+common.HashLength+len(url))
	out = append(out, domain.JSONURLPrefix...)
	out = append(out, crypto.Keccak256(doc)...)
	out = append(out, url...)
	return out, nil
}

// Decode splits an encoded value into its parts
func (JSONURLEncoder) Decode(data []byte) (*domain.JSONURL, error) {
	if !bytes.HasPrefix(data, domain.JSONURLPrefix) {
		return nil, fmt.Errorf("%w: unknown hash function 0x%x", domain.ErrInvalidMetadata, data[:min(len(data), len(domain.JSONURLPrefix))])
	}
	rest := data[len(domain.JSONURLPrefix):]
	if len(rest) <= common.HashLength {
		return nil, fmt.Errorf("%w: value too short", domain.ErrInvalidMetadata)
	}
	return &domain.JSONURL{
		HashFunction: domain.HashFunctionKeccakUTF8,
		Hash:         append([]byte(nil), rest[:common.HashLength]...),
		URL:          string(rest[common.HashLength:]),
	}, nil
}

var _ usecase.MetadataEncoder = (*JSONURLEncoder)(nil)
