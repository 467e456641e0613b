package upload

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// DefaultPinataAPI is the Pinata pinning API
const DefaultPinataAPI = "https://api.pinata.cloud"

// PinataUploader pins content through the Pinata API
type PinataUploader struct {
	client *retryablehttp.Client
	apiURL string
	jwt    string
}

// NewPinataUploader creates an uploader authenticated with a Pinata JWT
func NewPinataUploader(client *retryablehttp.Client, apiURL, jwt string) (*PinataUploader, error) {
	if jwt == "" {
		return nil, fmt.Errorf("pinata uploader requires a JWT")
	}
	if apiURL == "" {
		apiURL = DefaultPinataAPI
	}
	return &PinataUploader{client: client, apiURL: strings.TrimRight(apiURL, "/"), jwt: jwt}, nil
}

// Upload pins data and returns an ipfs:// URL
func (u *PinataUploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	body, formType, err := multipartFile("file", name, data, contentType)
	if err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.apiURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Authorization", "Bearer "+u.jwt)

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := doJSON(u.client, req, &out); err != nil {
		return "", err
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata returned no hash")
	}
	return "ipfs://" + out.IpfsHash, nil
}

var _ usecase.Uploader = (*PinataUploader)(nil)
