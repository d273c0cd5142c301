package notification

import (
	"context"
	"fmt"
	"time"

	"bookflow/config"

	"github.com/go-resty/resty/v2"
)

// WebhookSender posts messages to the configured messaging-gateway webhook.
// Channel formatting and delivery mechanics live behind that gateway.
type WebhookSender struct {
	client *resty.Client
	url    string
}

func NewWebhookSender() *WebhookSender {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(0)
	if token := config.AppConfig.NotifyAuthToken; token != "" {
		client.SetAuthToken(token)
	}
	return &WebhookSender{
		client: client,
		url:    config.AppConfig.NotifyWebhookURL,
	}
}

func (s *WebhookSender) Send(ctx context.Context, recipient, text string) error {
	if s.url == "" {
		return fmt.Errorf("notification webhook URL not configured")
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"to": recipient, "text": text}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("notification send failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification send rejected: status %d", resp.StatusCode())
	}
	return nil
}
