package upload

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewHTTPClient returns the HTTP client shared by the upload providers and the
// metadata fetcher. Uploads are not retried unless retryMax is positive.
func NewHTTPClient(retryMax int, log *slog.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	client.Logger = log.With("component", "http")
	return client
}
