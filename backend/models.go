package backend

import (
	"github.com/randalmurphal/reviewdesk/content"
)

// Me is the /me response.
type Me struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

type inboxResponse struct {
	Items []content.Item `json:"items"`
}

type transitionRequest struct {
	Comment string `json:"comment,omitempty"`
}

// auditResponse accepts both the nested {"report": {...}} shape and a flat
// report at the top level.
type auditResponse struct {
	Verdict    content.Verdict     `json:"verdict"`
	Report     *auditReportBody    `json:"report"`
	Violations []content.Violation `json:"violations"`
	Notes      []string            `json:"notes"`
	ImageURL   string              `json:"image_url"`
	Evidence   string              `json:"evidence_uri"`
}

type auditReportBody struct {
	Verdict    content.Verdict     `json:"verdict"`
	Violations []content.Violation `json:"violations"`
	Notes      []string            `json:"notes"`
}

func (r auditResponse) toReport(kind, target string) content.AuditReport {
	out := content.AuditReport{
		Verdict:     r.Verdict,
		Violations:  r.Violations,
		Notes:       r.Notes,
		EvidenceURI: r.ImageURL,
		Target:      target,
		TargetKind:  kind,
	}
	if out.EvidenceURI == "" {
		out.EvidenceURI = r.Evidence
	}
	if r.Report != nil {
		if out.Verdict == "" {
			out.Verdict = r.Report.Verdict
		}
		if r.Report.Violations != nil {
			out.Violations = r.Report.Violations
		}
		if r.Report.Notes != nil {
			out.Notes = r.Report.Notes
		}
	}
	if out.Violations == nil {
		out.Violations = []content.Violation{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	return out
}
