// Package upstream talks to the paginated auction feed API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skylens/auction-intel/pkg/models"
)

const (
	requestTimeout = 20 * time.Second
	maxAttempts    = 4
)

// Client fetches feed pages. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a feed client for the given base URL; the /auctions
// path is appended per request, and a base already carrying it is
// normalized so either form of the setting works. apiKey may be empty
// when the feed endpoint is unauthenticated.
func NewClient(baseURL, apiKey string) *Client {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/auctions")
	return &Client{
		baseURL: base,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// FetchPage retrieves one feed page, retrying transient failures with a
// linear backoff. A response with success=false counts as a failure.
func (c *Client) FetchPage(ctx context.Context, page int) (*models.FeedPage, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
			log.Printf("[Upstream] retrying page %d (attempt %d/%d): %v", page, attempt+1, maxAttempts, lastErr)
		}

		fp, err := c.fetchOnce(ctx, page)
		if err == nil {
			return fp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("page %d failed after %d attempts: %w", page, maxAttempts, lastErr)
}

// retryDelay is the linear backoff ladder: 250ms before the first retry,
// 350ms more for each one after.
func retryDelay(attempt int) time.Duration {
	return time.Duration(250+350*(attempt-1)) * time.Millisecond
}

func (c *Client) fetchOnce(ctx context.Context, page int) (*models.FeedPage, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad base url: %w", err)
	}
	u = u.JoinPath("auctions")
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	var fp models.FeedPage
	if err := json.NewDecoder(resp.Body).Decode(&fp); err != nil {
		return nil, fmt.Errorf("decoding page %d: %w", page, err)
	}
	if !fp.Success {
		return nil, fmt.Errorf("feed reported success=false for page %d", page)
	}
	return &fp, nil
}
