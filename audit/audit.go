// Package audit submits visual evidence for a multimodal compliance check
// against a brand manual.
//
// Only approver_b may audit. Both entry points validate locally before any
// request: a missing image, a missing target, or a disallowed role never
// reaches the network. Each successful call returns a complete report that
// replaces whatever report was shown before.
package audit

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/session"
)

// Submitter sends an image to the backend's audit endpoints.
type Submitter interface {
	AuditItemImage(ctx context.Context, credential, itemID string, img Image) (content.AuditReport, error)
	AuditBrandImage(ctx context.Context, credential, brandID string, img Image) (content.AuditReport, error)
}

// Operation names used in errors.
const (
	OpAuditItem  = "audit item"
	OpAuditBrand = "audit brand"
)

// Auditor runs audits on behalf of a session.
type Auditor struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewAuditor creates an Auditor.
func NewAuditor(s Submitter, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{submitter: s, logger: logger}
}

// AuditItem audits a content item's imagery against its brand manual.
func (a *Auditor) AuditItem(ctx context.Context, snap session.Snapshot, itemID string, img *Image) (content.AuditReport, error) {
	if err := Check(OpAuditItem, snap, itemID, img); err != nil {
		return content.AuditReport{}, err
	}
	report, err := a.submitter.AuditItemImage(ctx, snap.Credential.Token, itemID, *img)
	return a.finish(OpAuditItem, snap, itemID, report, err)
}

// AuditBrand audits an arbitrary image against a brand's manual. No content
// item is involved.
func (a *Auditor) AuditBrand(ctx context.Context, snap session.Snapshot, brandID string, img *Image) (content.AuditReport, error) {
	if err := Check(OpAuditBrand, snap, brandID, img); err != nil {
		return content.AuditReport{}, err
	}
	report, err := a.submitter.AuditBrandImage(ctx, snap.Credential.Token, brandID, *img)
	return a.finish(OpAuditBrand, snap, brandID, report, err)
}

func (a *Auditor) finish(op string, snap session.Snapshot, target string, report content.AuditReport, err error) (content.AuditReport, error) {
	if err != nil {
		err = rderrors.Classify(op, rderrors.KindFetch, target, string(snap.Role), err)
		if rderrors.IsPermissionError(err) {
			a.logger.Info("audit refused by server", "op", op, "target", target, "role", snap.Role)
		} else {
			a.logger.Warn("audit failed", "op", op, "target", target, "error", err)
		}
		return content.AuditReport{}, err
	}
	a.logger.Info("audit completed", "op", op, "target", target,
		"verdict", report.Verdict, "violations", len(report.Violations))
	return report, nil
}

// Check runs the local preconditions for an audit call. It never touches
// the network.
func Check(op string, snap session.Snapshot, target string, img *Image) error {
	if snap.Credential.Empty() {
		return rderrors.NewNotAuthenticatedError(op)
	}
	if !policy.CanAudit(snap.Role) {
		return &rderrors.AuthorizationError{
			Op:     op,
			Role:   string(snap.Role),
			Reason: "only approver_b may run audits",
		}
	}
	if !img.Present() {
		return rderrors.NewPreconditionError(op, "no image selected")
	}
	if err := img.validate(); err != nil {
		return rderrors.NewPreconditionError(op, err.Error())
	}
	if target == "" {
		return rderrors.NewPreconditionError(op, "no target selected")
	}
	return nil
}
