package review

import (
	"context"
	"fmt"

	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/session"
)

// Operation names used in errors.
const (
	OpApprove = "approve"
	OpReject  = "reject"
)

type transition struct {
	op     string
	notice string
	event  notify.EventType
	send   func(ctx context.Context, credential, itemID, comment string) error
}

func (d *Desk) approveTransition() transition {
	return transition{
		op:     OpApprove,
		notice: NoticeApproved,
		event:  notify.EventItemApproved,
		send:   d.transitions.Approve,
	}
}

func (d *Desk) rejectTransition() transition {
	return transition{
		op:     OpReject,
		notice: NoticeRejected,
		event:  notify.EventItemRejected,
		send:   d.transitions.Reject,
	}
}

// Approve approves itemID with an optional comment.
func (d *Desk) Approve(ctx context.Context, itemID, comment string) error {
	return d.transition(ctx, d.approveTransition(), itemID, comment)
}

// Reject rejects itemID with an optional comment.
func (d *Desk) Reject(ctx context.Context, itemID, comment string) error {
	return d.transition(ctx, d.rejectTransition(), itemID, comment)
}

// ApproveSelected approves the selected item with the pending comment.
func (d *Desk) ApproveSelected(ctx context.Context) error {
	id, comment, err := d.selectedForTransition(OpApprove)
	if err != nil {
		return err
	}
	return d.Approve(ctx, id, comment)
}

// RejectSelected rejects the selected item with the pending comment.
func (d *Desk) RejectSelected(ctx context.Context) error {
	id, comment, err := d.selectedForTransition(OpReject)
	if err != nil {
		return err
	}
	return d.Reject(ctx, id, comment)
}

func (d *Desk) selectedForTransition(op string) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selectedID == "" {
		d.clearMessagesLocked()
		d.err = rderrors.NewPreconditionError(op, "no item selected")
		return "", "", d.err
	}
	return d.selectedID, d.comment, nil
}

// CheckTransition runs the local preconditions for approving or rejecting
// item. It never touches the network.
func CheckTransition(op string, snap session.Snapshot, item content.Item, listed bool) error {
	if snap.Credential.Empty() {
		return rderrors.NewNotAuthenticatedError(op)
	}
	if !snap.Role.Approver() {
		return &rderrors.AuthorizationError{
			Op:     op,
			Role:   string(snap.Role),
			Reason: "only approvers may review content",
		}
	}
	if !listed {
		return rderrors.NewPreconditionError(op, fmt.Sprintf("content %s is not in the current list", item.ID))
	}
	if !policy.CanApprove(snap.Role, item.Status) {
		return rderrors.NewPreconditionError(op, fmt.Sprintf("content %s is %s", item.ID, item.Status))
	}
	return nil
}

// transition sends exactly one request. On success the selection is
// cleared and the inbox re-fetched; on failure nothing but the error
// changes.
func (d *Desk) transition(ctx context.Context, tr transition, itemID, comment string) error {
	snap := d.sess.Snapshot()

	d.mu.Lock()
	d.clearMessagesLocked()
	item, listed := content.Find(d.items, itemID)
	if !listed {
		item.ID = itemID
	}
	if err := CheckTransition(tr.op, snap, item, listed); err != nil {
		d.err = err
		d.mu.Unlock()
		return err
	}
	t := ticket{epoch: snap.Epoch}
	d.mu.Unlock()

	err := tr.send(ctx, snap.Credential.Token, itemID, comment)
	if err != nil {
		err = rderrors.Classify(tr.op, rderrors.KindTransition, itemID, string(snap.Role), err)
	}

	d.mu.Lock()
	if cur := d.sess.Epoch(); cur != t.epoch {
		d.mu.Unlock()
		d.logger.Debug("discarding stale transition response",
			"op", tr.op, "item", itemID, "dispatch_epoch", t.epoch, "current_epoch", cur)
		return rderrors.ErrStale
	}
	if err != nil {
		d.err = err
		d.mu.Unlock()
		d.logger.Warn("transition failed", "op", tr.op, "item", itemID, "error", err)
		d.dropIfUnauthenticated(err)
		return err
	}

	d.lastActed = itemID
	d.clearSelectionLocked()
	d.notice = tr.notice
	d.mu.Unlock()

	d.saveSelection(snap, "")
	d.logger.Info("content reviewed", "op", tr.op, "item", itemID, "role", snap.Role)
	d.publish(ctx, snap, notify.Event{
		Type:     tr.event,
		ItemID:   itemID,
		BrandID:  item.BrandID,
		Message:  tr.notice,
		Severity: notify.SeverityInfo,
		Metadata: commentMetadata(comment),
	})

	// The transition stands even if the follow-up load fails; that failure
	// is recorded in State.Err.
	_ = d.refresh(ctx, false)
	return nil
}

func commentMetadata(comment string) map[string]any {
	if comment == "" {
		return nil
	}
	return map[string]any{"comment": comment}
}
