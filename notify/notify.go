package notify

import (
	"context"
	"log/slog"
	"time"
)

// =============================================================================
// Notification Types
// =============================================================================

// EventType represents the type of review event.
type EventType string

// Event type constants.
const (
	EventItemApproved   EventType = "item_approved"
	EventItemRejected   EventType = "item_rejected"
	EventAuditCompleted EventType = "audit_completed"
	EventSessionChanged EventType = "session_changed"
)

// Severity constants for notifications.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes a review event for notification.
type Event struct {
	Type      EventType      `json:"type"`
	ItemID    string         `json:"item_id,omitempty"`
	BrandID   string         `json:"brand_id,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Role      string         `json:"role,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"` // SeverityInfo, SeverityWarning, SeverityError
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// =============================================================================
// Notifier Interface
// =============================================================================

// Notifier sends notifications about review events.
type Notifier interface {
	// Notify sends a notification. Implementations should handle errors
	// gracefully (log, don't crash).
	Notify(ctx context.Context, event Event) error
}

// =============================================================================
// Construction from settings
// =============================================================================

// Options selects the notifiers Build wires together.
type Options struct {
	WebhookURL      string
	SlackWebhookURL string
	SlackChannel    string
	Logger          *slog.Logger

	// Timeout bounds each webhook delivery; zero means DefaultTimeout.
	Timeout time.Duration

	// Extra notifiers receive every event after the built-in ones.
	Extra []Notifier
}

// Build returns a LogNotifier, fanned out to a webhook and Slack when their
// URLs are set and to any extra notifiers.
func Build(opts Options) Notifier {
	log := NewLogNotifier(opts.Logger)
	notifiers := []Notifier{log}
	if opts.WebhookURL != "" {
		notifiers = append(notifiers, NewWebhookNotifier(opts.WebhookURL, WithWebhookTimeout(opts.Timeout)))
	}
	if opts.SlackWebhookURL != "" {
		slackOpts := []SlackOption{WithSlackTimeout(opts.Timeout)}
		if opts.SlackChannel != "" {
			slackOpts = append(slackOpts, WithSlackChannel(opts.SlackChannel))
		}
		notifiers = append(notifiers, NewSlackNotifier(opts.SlackWebhookURL, slackOpts...))
	}
	notifiers = append(notifiers, opts.Extra...)
	if len(notifiers) == 1 {
		return log
	}
	return NewFanout(log.Logger, notifiers...)
}
