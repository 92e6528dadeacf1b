package review

import (
	"context"

	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/session"
)

// Refresh fetches the inbox and re-resolves the selection against it. On
// failure the previous list is kept and the error recorded.
func (d *Desk) Refresh(ctx context.Context) error {
	return d.refresh(ctx, true)
}

func (d *Desk) refresh(ctx context.Context, clearMessages bool) error {
	snap := d.sess.Snapshot()

	d.mu.Lock()
	if clearMessages {
		d.clearMessagesLocked()
	}
	d.refreshSeq++
	t := ticket{epoch: snap.Epoch, seq: d.refreshSeq}
	d.mu.Unlock()

	items, err := d.inbox.List(ctx, snap)

	d.mu.Lock()
	if cur := d.sess.Epoch(); cur != t.epoch || d.refreshSeq != t.seq {
		d.mu.Unlock()
		d.logger.Debug("discarding stale inbox response",
			"dispatch_epoch", t.epoch, "current_epoch", cur, "seq", t.seq)
		return rderrors.ErrStale
	}
	if err != nil {
		d.err = err
		d.mu.Unlock()
		d.logger.Warn("inbox refresh failed", "error", err)
		d.dropIfUnauthenticated(err)
		return err
	}

	d.items = items
	before := d.selectedID
	d.reselectLocked(snap.Role)
	after := d.selectedID
	d.mu.Unlock()

	if after != before {
		d.saveSelection(snap, after)
	}
	d.logger.Debug("inbox refreshed", "items", len(items), "selected", after)
	return nil
}

// reselectLocked applies the selection policy after a list load: keep the
// remembered item if it is still listed, else fall back to the first item,
// else select nothing. An item this desk just approved or rejected is only
// selected again if it is still actionable.
func (d *Desk) reselectLocked(role session.Role) {
	want := d.selectedID
	if want == "" {
		want = d.remembered
	}
	if want != "" {
		if it, ok := content.Find(d.items, want); ok && d.selectable(role, it) {
			d.selectLocked(want)
			return
		}
	}
	for _, it := range d.items {
		if d.selectable(role, it) {
			d.selectLocked(it.ID)
			return
		}
	}
	d.clearSelectionLocked()
}

func (d *Desk) selectable(role session.Role, it content.Item) bool {
	if it.ID != d.lastActed {
		return true
	}
	return policy.CanApprove(role, it.Status)
}

func (d *Desk) clearSelectionLocked() {
	if d.selectedID != "" {
		d.report = nil
		d.comment = ""
		d.selGen++
	}
	d.selectedID = ""
	d.remembered = ""
}
