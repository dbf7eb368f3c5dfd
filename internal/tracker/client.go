package tracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/multiarchi/claimsbot/pkg/errors"
)

// ErrNoChecksTable is returned when the fetched page has no tracker table,
// usually because the tracker id is wrong or the room expired.
var ErrNoChecksTable = fmt.Errorf("tracker page has no checks table")

// Client fetches and parses multiworld tracker pages.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// IDFromURL extracts the tracker id from a pasted tracker link, the last
// path segment.
func IDFromURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}

// Fetch downloads the tracker page for trackerID and returns the aggregated
// per-slot data.
func (c *Client) Fetch(ctx context.Context, trackerID string) (map[string]SlotData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+trackerID, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build tracker request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to fetch tracker page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeNotFound, fmt.Sprintf("tracker returned status %d", resp.StatusCode))
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read tracker page")
	}

	rows, err := ParseChecksTable(page)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to parse tracker page")
	}
	return Aggregate(rows), nil
}
