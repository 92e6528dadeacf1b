package review

import (
	"context"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/session"
)

// AuditSelected audits the selected item with the chosen image.
func (d *Desk) AuditSelected(ctx context.Context) (content.AuditReport, error) {
	d.mu.Lock()
	id := d.selectedID
	var img *audit.Image
	if d.image != nil {
		cp := *d.image
		img = &cp
	}
	if id == "" {
		d.clearMessagesLocked()
		d.err = rderrors.NewPreconditionError(audit.OpAuditItem, "no item selected")
		err := d.err
		d.mu.Unlock()
		return content.AuditReport{}, err
	}
	d.mu.Unlock()
	return d.AuditItem(ctx, id, img)
}

// AuditItem audits itemID's imagery. The response is dropped if the session
// or the selection changed while it was in flight.
func (d *Desk) AuditItem(ctx context.Context, itemID string, img *audit.Image) (content.AuditReport, error) {
	return d.runAudit(ctx, true, itemID, img, d.auditor.AuditItem)
}

// AuditBrand audits an image against a brand manual directly. A nil img
// means the chosen image. The selection plays no part.
func (d *Desk) AuditBrand(ctx context.Context, brandID string, img *audit.Image) (content.AuditReport, error) {
	if img == nil {
		d.mu.Lock()
		if d.image != nil {
			cp := *d.image
			img = &cp
		}
		d.mu.Unlock()
	}
	return d.runAudit(ctx, false, brandID, img, d.auditor.AuditBrand)
}

type auditFunc func(ctx context.Context, snap session.Snapshot, target string, img *audit.Image) (content.AuditReport, error)

func (d *Desk) runAudit(ctx context.Context, bySelection bool, target string, img *audit.Image, run auditFunc) (content.AuditReport, error) {
	snap := d.sess.Snapshot()

	d.mu.Lock()
	d.clearMessagesLocked()
	d.auditSeq++
	t := ticket{epoch: snap.Epoch, seq: d.auditSeq, sel: d.selGen}
	d.mu.Unlock()

	report, err := run(ctx, snap, target, img)

	d.mu.Lock()
	cur := d.sess.Epoch()
	stale := cur != t.epoch || d.auditSeq != t.seq || (bySelection && d.selGen != t.sel)
	if stale {
		d.mu.Unlock()
		d.logger.Debug("discarding stale audit response",
			"target", target, "dispatch_epoch", t.epoch, "current_epoch", cur, "seq", t.seq)
		return content.AuditReport{}, rderrors.ErrStale
	}
	if err != nil {
		d.err = err
		d.mu.Unlock()
		d.dropIfUnauthenticated(err)
		return content.AuditReport{}, err
	}

	stored := report.Clone()
	d.report = &stored
	d.notice = auditNotice(report)
	d.mu.Unlock()

	ev := notify.Event{
		Type:     notify.EventAuditCompleted,
		Message:  auditNotice(report),
		Severity: notify.SeverityInfo,
		Metadata: map[string]any{
			"verdict":    string(report.Verdict),
			"violations": len(report.Violations),
		},
	}
	if !report.Passed() {
		ev.Severity = notify.SeverityWarning
	}
	if bySelection {
		ev.ItemID = target
	} else {
		ev.BrandID = target
	}
	d.publish(ctx, snap, ev)
	return report, nil
}

func auditNotice(r content.AuditReport) string {
	if r.Passed() {
		return NoticeAuditCheck
	}
	return NoticeAuditFail
}
