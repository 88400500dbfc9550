// Package alert notifies an external webhook when a training run
// produces a model below the configured quality bar.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// Notifier delivers an alert message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NoOpNotifier discards alerts. Used when no webhook is configured.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(ctx context.Context, message string) error {
	logger.Debugf("Alert suppressed (no webhook configured): %s", message)
	return nil
}

// WebhookNotifier posts alerts as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to encode alert payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	logger.Infof("Alert delivered to webhook: %s", message)
	return nil
}
