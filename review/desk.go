package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/session"
)

// Lister fetches the inbox for a session.
type Lister interface {
	List(ctx context.Context, snap session.Snapshot) ([]content.Item, error)
}

// Transitioner sends approve and reject requests.
type Transitioner interface {
	Approve(ctx context.Context, credential, itemID, comment string) error
	Reject(ctx context.Context, credential, itemID, comment string) error
}

// Auditor runs the audit sub-workflow.
type Auditor interface {
	AuditItem(ctx context.Context, snap session.Snapshot, itemID string, img *audit.Image) (content.AuditReport, error)
	AuditBrand(ctx context.Context, snap session.Snapshot, brandID string, img *audit.Image) (content.AuditReport, error)
}

// SelectionStore remembers the selected item per subject across restarts.
type SelectionStore interface {
	LoadSelection(subject string) (string, error)
	SaveSelection(subject, itemID string) error
}

// Notices shown after a successful intent.
const (
	NoticeApproved   = "approved"
	NoticeRejected   = "rejected"
	NoticeAuditCheck = "CHECK: complies with manual"
	NoticeAuditFail  = "FAIL: requires corrections"
)

// Config wires a Desk to its collaborators. Session, Inbox, Transitions and
// Auditor are required.
type Config struct {
	Session     *session.Context
	Inbox       Lister
	Transitions Transitioner
	Auditor     Auditor

	// Store persists the selection. Optional.
	Store SelectionStore

	// Notifier receives review events. Defaults to notify.NopNotifier.
	Notifier notify.Notifier

	Logger *slog.Logger

	// Now stamps events. Defaults to time.Now.
	Now func() time.Time
}

// State is a read-only copy of the desk.
type State struct {
	Role     session.Role
	Subject  string
	SignedIn bool

	Items      []content.Item
	SelectedID string
	Comment    string
	Image      *audit.Image
	Report     *content.AuditReport

	// Notice is the outcome of the last successful intent.
	Notice string

	// Err is the error from the last failed intent.
	Err error
}

// Selected returns the selected item.
func (s State) Selected() (content.Item, bool) {
	if s.SelectedID == "" {
		return content.Item{}, false
	}
	return content.Find(s.Items, s.SelectedID)
}

// Available lists the actions that may be offered right now.
func (s State) Available() []policy.Action {
	ps := policy.State{Role: s.Role, HasImage: s.Image.Present()}
	if it, ok := s.Selected(); ok {
		ps.Selected = &it
	}
	return policy.Available(ps)
}

// ticket correlates a response with the state it was requested under.
type ticket struct {
	epoch uint64
	seq   uint64
	sel   uint64
}

// Desk is the session-state aggregate. It is safe for concurrent use; a
// front end may issue a new intent while another is outstanding.
type Desk struct {
	sess        *session.Context
	inbox       Lister
	transitions Transitioner
	auditor     Auditor
	store       SelectionStore
	notifier    notify.Notifier
	logger      *slog.Logger
	now         func() time.Time

	mu         sync.Mutex
	items      []content.Item
	selectedID string
	remembered string
	lastActed  string
	comment    string
	image      *audit.Image
	report     *content.AuditReport
	notice     string
	err        error

	selGen     uint64
	refreshSeq uint64
	auditSeq   uint64
}

// New creates a Desk and subscribes it to credential changes.
func New(cfg Config) *Desk {
	d := &Desk{
		sess:        cfg.Session,
		inbox:       cfg.Inbox,
		transitions: cfg.Transitions,
		auditor:     cfg.Auditor,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if d.notifier == nil {
		d.notifier = notify.NopNotifier{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.sess.OnChange(d.onSessionChange)
	d.loadRemembered(d.sess.Snapshot())
	return d
}

// State returns a copy of the current state.
func (d *Desk) State() State {
	snap := d.sess.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()

	st := State{
		Role:       snap.Role,
		Subject:    snap.Credential.Subject,
		SignedIn:   !snap.Credential.Empty(),
		Items:      append([]content.Item(nil), d.items...),
		SelectedID: d.selectedID,
		Comment:    d.comment,
		Notice:     d.notice,
		Err:        d.err,
	}
	if d.image != nil {
		img := *d.image
		st.Image = &img
	}
	if d.report != nil {
		r := d.report.Clone()
		st.Report = &r
	}
	return st
}

// Reset drops every piece of session state: items, selection, comment,
// image, report and messages. In-flight responses become stale.
func (d *Desk) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *Desk) resetLocked() {
	d.items = nil
	d.selectedID = ""
	d.remembered = ""
	d.lastActed = ""
	d.comment = ""
	d.image = nil
	d.report = nil
	d.notice = ""
	d.err = nil
	d.selGen++
	d.refreshSeq++
	d.auditSeq++
}

func (d *Desk) onSessionChange(snap session.Snapshot) {
	d.Reset()
	d.loadRemembered(snap)
	d.publish(context.Background(), snap, notify.Event{
		Type:     notify.EventSessionChanged,
		Message:  sessionMessage(snap),
		Severity: notify.SeverityInfo,
	})
}

func sessionMessage(snap session.Snapshot) string {
	if snap.Credential.Empty() {
		return "signed out"
	}
	return "signed in"
}

func (d *Desk) loadRemembered(snap session.Snapshot) {
	if d.store == nil || snap.Credential.Empty() {
		return
	}
	id, err := d.store.LoadSelection(selectionKey(snap))
	if err != nil {
		d.logger.Warn("load remembered selection", "error", err)
		return
	}
	d.mu.Lock()
	d.remembered = id
	d.mu.Unlock()
}

func (d *Desk) saveSelection(snap session.Snapshot, id string) {
	if d.store == nil || snap.Credential.Empty() {
		return
	}
	if err := d.store.SaveSelection(selectionKey(snap), id); err != nil {
		d.logger.Warn("save selection", "error", err)
	}
}

func selectionKey(snap session.Snapshot) string {
	if snap.Credential.Subject == "" {
		return "default"
	}
	return snap.Credential.Subject
}

// SignIn installs cred, resolves its role and loads the inbox.
func (d *Desk) SignIn(ctx context.Context, cred session.Credential) (session.Role, error) {
	d.sess.Set(cred)
	return d.Start(ctx)
}

// Start resolves the role of the current credential and loads the inbox,
// returning the first failure. A network failure while resolving leaves the
// role unknown but still loads the list; a rejected credential signs out.
func (d *Desk) Start(ctx context.Context) (session.Role, error) {
	d.mu.Lock()
	d.clearMessagesLocked()
	d.mu.Unlock()

	role, err := d.sess.Resolve(ctx)
	if err != nil {
		if rderrors.IsStale(err) {
			return session.RoleNone, err
		}
		d.fail(err)
		if rderrors.IsAuthError(err) {
			return session.RoleNone, err
		}
	}
	if rerr := d.refresh(ctx, false); err == nil && rerr != nil && !rderrors.IsStale(rerr) {
		err = rerr
	}
	return role, err
}

// SignOut clears the credential and with it all session state.
func (d *Desk) SignOut() {
	d.sess.Clear()
}

// Select makes id the selected item. The audit report and pending comment
// belong to the previous selection and are cleared.
func (d *Desk) Select(id string) error {
	snap := d.sess.Snapshot()

	d.mu.Lock()
	d.clearMessagesLocked()
	if _, ok := content.Find(d.items, id); !ok {
		err := rderrors.NewPreconditionError("select", "content "+id+" is not in the current list")
		d.err = err
		d.mu.Unlock()
		return err
	}
	d.selectLocked(id)
	d.mu.Unlock()

	d.saveSelection(snap, id)
	return nil
}

// selectLocked changes the selection, dropping per-item state when the
// selected item actually changes.
func (d *Desk) selectLocked(id string) {
	if id != d.selectedID {
		d.report = nil
		d.comment = ""
		d.selGen++
	}
	d.selectedID = id
	d.remembered = id
}

// SetComment sets the comment sent with the next approve or reject.
func (d *Desk) SetComment(comment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.comment = comment
}

// SetImage chooses the image for the next audit. Nil clears it.
func (d *Desk) SetImage(img *audit.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if img == nil {
		d.image = nil
		return
	}
	cp := *img
	d.image = &cp
}

func (d *Desk) clearMessagesLocked() {
	d.notice = ""
	d.err = nil
}

func (d *Desk) fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

// dropIfUnauthenticated signs out after the server rejected the credential.
// It must be called without d.mu held.
func (d *Desk) dropIfUnauthenticated(err error) {
	if rderrors.IsAuthError(err) {
		d.sess.Clear()
		d.fail(err)
	}
}

func (d *Desk) publish(ctx context.Context, snap session.Snapshot, ev notify.Event) {
	ev.Actor = snap.Credential.Subject
	ev.Role = string(snap.Role)
	ev.Timestamp = d.now()
	if err := d.notifier.Notify(ctx, ev); err != nil {
		d.logger.Warn("notifier failed", "error", err, "event_type", ev.Type)
	}
}
