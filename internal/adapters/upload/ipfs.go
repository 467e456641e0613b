package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// DefaultIPFSAPI is the local IPFS daemon's HTTP API
const DefaultIPFSAPI = "http://127.0.0.1:5001"

// IPFSUploader adds content through an IPFS node's HTTP API
type IPFSUploader struct {
	client *retryablehttp.Client
	apiURL string
}

// NewIPFSUploader creates an uploader for the node at apiURL
func NewIPFSUploader(client *retryablehttp.Client, apiURL string) *IPFSUploader {
	if apiURL == "" {
		apiURL = DefaultIPFSAPI
	}
	return &IPFSUploader{client: client, apiURL: strings.TrimRight(apiURL, "/")}
}

// Upload adds and pins data, returning an ipfs:// URL
func (u *IPFSUploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	body, formType, err := multipartFile("file", name, data, contentType)
	if err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u.apiURL+"/api/v0/add?pin=true&cid-version=1", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", formType)

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := doJSON(u.client, req, &out); err != nil {
		return "", err
	}
	if out.Hash == "" {
		return "", fmt.Errorf("ipfs add returned no hash")
	}
	return "ipfs://" + out.Hash, nil
}

// multipartFile builds a single-file multipart form
func multipartFile(field, name string, data []byte, contentType string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// doJSON sends req and decodes a JSON response into out
func doJSON(client *retryablehttp.Client, req *retryablehttp.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

var _ usecase.Uploader = (*IPFSUploader)(nil)
