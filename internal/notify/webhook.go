package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chimed/chimed/internal/version"
)

// defaultWebhookTimeout caps a webhook request when the caller supplies no
// client of its own.
const defaultWebhookTimeout = 10 * time.Second

// WebhookPresenter POSTs one JSON alert document per firing to a fixed URL.
type WebhookPresenter struct {
	url    string
	client *http.Client
}

// NewWebhookPresenter builds a presenter that posts to the provided URL.
// A nil client falls back to a default one with a conservative timeout.
func NewWebhookPresenter(url string, client *http.Client) *WebhookPresenter {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}

	return &WebhookPresenter{url: url, client: client}
}

// Present posts the alert document. Any non-2xx response is an error.
func (p *WebhookPresenter) Present(ctx context.Context, event Event) error {
	body, err := json.Marshal(NewAlert(event))
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook failed with status: %d", resp.StatusCode)
	}

	return nil
}
