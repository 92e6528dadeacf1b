package notify

import (
	"context"
	"net/http"
	"time"
)

// WebhookNotifier posts each event as JSON to a generic endpoint.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// WebhookOption configures WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookHeaders adds headers to every delivery, e.g. an Authorization
// token expected by the receiver.
func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(n *WebhookNotifier) { n.Headers = headers }
}

// WithWebhookTimeout bounds each delivery.
func WithWebhookTimeout(timeout time.Duration) WebhookOption {
	return func(n *WebhookNotifier) { n.Client = newHTTPClient(timeout) }
}

// NewWebhookNotifier creates a webhook notifier with a pooled client and
// DefaultTimeout.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{URL: url, Client: newHTTPClient(0)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier. The event is the request body unchanged.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	return postJSON(ctx, n.Client, n.URL, "webhook", n.Headers, event)
}
