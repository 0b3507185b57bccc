package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MediaFetcher downloads attachment bytes from the gateway's media host.
// Media URLs are protected by the account's basic-auth credential.
type MediaFetcher struct {
	accountSID string
	authToken  string
	httpClient *http.Client
}

// NewMediaFetcher builds a fetcher using the gateway credential.
func NewMediaFetcher(accountSID, authToken string) *MediaFetcher {
	return &MediaFetcher{
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// maxMediaBytes caps a single download; WhatsApp images top out well below this.
const maxMediaBytes = 16 << 20

// Fetch downloads the media at the given URL.
func (f *MediaFetcher) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: build media request: %w", err)
	}
	req.SetBasicAuth(f.accountSID, f.authToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messaging: media download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("messaging: media download: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("messaging: read media body: %w", err)
	}
	return data, nil
}
