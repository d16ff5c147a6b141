package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier pushes forwarded events to a configured HTTP endpoint,
// typically a chat-notification bridge. Each request is signed with
// HMAC-SHA256 so the receiver can verify authenticity. Non-2xx responses are
// errors, letting the forwarder apply its retry/dead-letter policy.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookNotifier returns a WebhookNotifier that POSTs events to url and
// signs them with secret. A zero or negative timeout falls back to
// defaultWebhookTimeout (10 s).
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
}

// Notify marshals the persisted event to JSON, signs the body, and POSTs it.
// Headers on every request:
//
//	Content-Type:        application/json
//	X-Bridge-Event:      <record.Name>
//	X-Bridge-Level:      <record.Level>
//	X-Hub-Signature-256: sha256=<hex-encoded HMAC-SHA256>
func (n *WebhookNotifier) Notify(ctx context.Context, record domain.EventRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal event record: %w", err)
	}

	sig := n.sign(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bridge-Event", string(record.Name))
	req.Header.Set("X-Bridge-Level", string(record.Level))
	req.Header.Set("X-Hub-Signature-256", "sha256="+sig)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) sign(payload []byte) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
