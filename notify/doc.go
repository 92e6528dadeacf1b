// Package notify publishes review events: approvals, rejections, completed
// audits and credential changes.
//
// Implementations:
//   - LogNotifier: Logs events with slog (the default)
//   - WebhookNotifier: Posts the JSON event to a generic webhook; a failed
//     delivery is a DeliveryError carrying the endpoint's response text
//   - SlackNotifier: Posts an attachment to a Slack incoming webhook
//   - Fanout: Delivers to several notifiers, logging and joining failures
//   - NopNotifier: Discards everything
//
// Build assembles the configured set:
//
//	n := notify.Build(notify.Options{
//	    SlackWebhookURL: settings.SlackWebhookURL,
//	    SlackChannel:    "#brand-review",
//	})
//	_ = n.Notify(ctx, notify.Event{
//	    Type:    notify.EventItemApproved,
//	    ItemID:  item.ID,
//	    Message: "approved",
//	})
package notify
