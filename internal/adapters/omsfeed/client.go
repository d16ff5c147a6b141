// Package omsfeed pulls export payloads from the OMS feed endpoint on behalf
// of the scheduled jobs.
package omsfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

const defaultPullTimeout = 15 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultPullTimeout
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

// Pull fetches the pending export for one message type and channel. The body
// comes back verbatim; the dispatcher's pipeline owns all validation.
func (c *Client) Pull(ctx context.Context, messageType domain.MessageType, channelID string) (string, error) {
	u := fmt.Sprintf("%s/feeds/%s?channel=%s", c.baseURL, messageType, url.QueryEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pull %s feed: %w", messageType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("feed endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}
