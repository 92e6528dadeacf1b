package content

// Verdict is the binary outcome of an audit.
type Verdict string

// Verdict constants.
const (
	VerdictCheck Verdict = "CHECK"
	VerdictFail  Verdict = "FAIL"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	return v == VerdictCheck || v == VerdictFail
}

// Violation is one broken manual rule found by an audit.
type Violation struct {
	Rule     string `json:"rule"`
	Evidence string `json:"evidence"`
	Fix      string `json:"fix"`
}

// AuditReport is the complete result of a single audit run. Each run
// supersedes the previous report; reports are never merged.
type AuditReport struct {
	Verdict     Verdict     `json:"verdict"`
	Violations  []Violation `json:"violations"`
	Notes       []string    `json:"notes"`
	EvidenceURI string      `json:"evidence_uri,omitempty"`

	// Target identifies what was audited: an item ID for item audits,
	// a brand ID for brand audits.
	Target     string `json:"target"`
	TargetKind string `json:"target_kind"`
}

// Audit target kinds.
const (
	TargetItem  = "item"
	TargetBrand = "brand"
)

// Passed reports whether the audit found the image compliant.
func (r AuditReport) Passed() bool {
	return r.Verdict == VerdictCheck
}

// Clone returns a deep copy so holders cannot mutate each other's slices.
func (r AuditReport) Clone() AuditReport {
	out := r
	if r.Violations != nil {
		out.Violations = append([]Violation(nil), r.Violations...)
	}
	if r.Notes != nil {
		out.Notes = append([]string(nil), r.Notes...)
	}
	return out
}
