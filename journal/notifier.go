package journal

import (
	"context"
	"slices"

	"github.com/randalmurphal/reviewdesk/notify"
)

// Recorded lists the event types a Notifier writes by default.
var Recorded = []notify.EventType{
	notify.EventItemApproved,
	notify.EventItemRejected,
	notify.EventAuditCompleted,
}

// Notifier records review events in a FileStore.
type Notifier struct {
	store *FileStore
	types []notify.EventType
}

// NewNotifier records the given event types, or Recorded when none are given.
func NewNotifier(store *FileStore, types ...notify.EventType) *Notifier {
	if len(types) == 0 {
		types = Recorded
	}
	return &Notifier{store: store, types: types}
}

// Notify implements notify.Notifier.
func (n *Notifier) Notify(_ context.Context, event notify.Event) error {
	if !slices.Contains(n.types, event.Type) {
		return nil
	}
	_, err := n.store.Append(event)
	return err
}
