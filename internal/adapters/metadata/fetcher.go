package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// DefaultGateway resolves ipfs:// URLs when no gateway is configured
const DefaultGateway = "https://api.universalprofile.cloud"

// maxDocumentSize bounds how much of a metadata document is read
const maxDocumentSize = 10 << 20

// HTTPFetcher downloads metadata over HTTP, rewriting ipfs:// URLs to a gateway
type HTTPFetcher struct {
	client  *retryablehttp.Client
	gateway string
	maxSize int64
}

// NewHTTPFetcher creates a fetcher using gateway for ipfs:// URLs
func NewHTTPFetcher(client *retryablehttp.Client, gateway string) *HTTPFetcher {
	if gateway == "" {
		gateway = DefaultGateway
	}
	return &HTTPFetcher{client: client, gateway: strings.TrimRight(gateway, "/"), maxSize: maxDocumentSize}
}

// Fetch returns the content at url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.Resolve(url), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("document at %s: %w (limit %d bytes)", url, domain.ErrTooLarge, f.maxSize)
	}
	return data, nil
}

// Resolve maps url to the HTTP URL actually requested
func (f *HTTPFetcher) Resolve(url string) string {
	if cid, ok := strings.CutPrefix(url, "ipfs://"); ok {
		return f.gateway + "/ipfs/" + cid
	}
	return url
}

var _ usecase.MetadataFetcher = (*HTTPFetcher)(nil)
