// Package channels implements the per-marketplace channel operations. Each
// marketplace gets its own client speaking that marketplace's API shape; all
// of them share the restClient call discipline below.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

const defaultCallTimeout = 10 * time.Second

type restClient struct {
	client *http.Client
}

func newRESTClient(timeout time.Duration) *restClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &restClient{client: &http.Client{Timeout: timeout}}
}

// post sends one JSON request to a marketplace endpoint. Transport failures,
// timeouts, and non-2xx responses all come back as *domain.BusinessError:
// from the dispatcher's point of view a failing downstream call is a business
// outcome, never a system crash.
func (c *restClient) post(ctx context.Context, channel domain.ChannelName, op domain.OperationKind, cfg domain.ChannelConfig, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s %s request: %w", channel, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", channel, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.BusinessError{Channel: channel, Op: op, Detail: err.Error()}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.BusinessError{Channel: channel, Op: op, Detail: fmt.Sprintf("marketplace returned status %d", resp.StatusCode)}
	}
	return nil
}
