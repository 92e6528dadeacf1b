package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Fanout delivers each event to every notifier in order. A failing notifier
// is logged and the rest still run; Notify returns all failures joined.
type Fanout struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

// NewFanout creates a Fanout. A nil logger means slog.Default().
func NewFanout(logger *slog.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{Notifiers: notifiers, Logger: logger}
}

// Notify implements Notifier.
func (f *Fanout) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range f.Notifiers {
		err := n.Notify(ctx, event)
		if err == nil {
			continue
		}
		f.Logger.Warn("event delivery failed",
			"notifier", fmt.Sprintf("%T", n),
			"event", event.Type,
			"item_id", event.ItemID,
			"brand_id", event.BrandID,
			"error", err,
		)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error {
	return nil
}
