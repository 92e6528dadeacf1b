package tui

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randalmurphal/reviewdesk/app"
	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/config"
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/review"
	"github.com/randalmurphal/reviewdesk/session"
	"github.com/randalmurphal/reviewdesk/testutil"
)

func newTestModel(t *testing.T, role session.Role, opts ...Option) *Model {
	t.Helper()
	ds := testutil.StartDevServer(t)
	a, err := app.Open(config.Settings{
		APIBase:  ds.URL,
		AuthURL:  ds.TokenURL(),
		ClientID: "reviewdesk",
		Timeout:  5 * time.Second,
		Retries:  1,
		StateDir: t.TempDir(),
		Token:    ds.Tokens[role],
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	ctx := testutil.TestContext(t)
	if _, err := a.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	m := New(ctx, a.Desk, opts...)
	m.Update(tea.WindowSizeMsg{Width: 400, Height: 60})
	settle(t, m, m.Init())
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, s string) tea.Cmd {
	_, cmd := m.Update(key(s))
	return cmd
}

// settle runs a desk intent started by the model and feeds its result back.
func settle(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	done, ok := cmd().(doneMsg)
	if !ok {
		t.Fatal("expected the command to finish a desk intent")
	}
	m.Update(done)
}

func TestModel_ApproveWithComment(t *testing.T) {
	m := newTestModel(t, session.RoleApproverA)

	if got := len(m.state.Items); got != 3 {
		t.Fatalf("items = %d, want 3", got)
	}
	first := m.state.Items[0].ID
	if m.state.SelectedID != first {
		t.Fatalf("selected = %q, want first item %q", m.state.SelectedID, first)
	}
	view := m.View()
	for _, want := range []string{"Approver A", "a approve", "x reject"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "u audit item") {
		t.Error("approver_a must not be offered audits")
	}

	press(m, "c")
	if m.mode != modeComment {
		t.Fatalf("mode = %v, want comment", m.mode)
	}
	press(m, "looks good")
	press(m, "enter")
	if m.state.Comment != "looks good" {
		t.Fatalf("comment = %q", m.state.Comment)
	}

	settle(t, m, press(m, "a"))
	if m.state.Notice != review.NoticeApproved {
		t.Errorf("notice = %q, want %q", m.state.Notice, review.NoticeApproved)
	}
	if _, ok := content.Find(m.state.Items, first); ok {
		t.Error("approved item should leave the approver inbox")
	}
	if !strings.Contains(m.View(), review.NoticeApproved) {
		t.Error("view should show the notice")
	}
}

func TestModel_SelectMovesWithCursor(t *testing.T) {
	m := newTestModel(t, session.RoleApproverA)
	second := m.state.Items[1].ID

	press(m, "down")
	press(m, "enter")
	if m.state.SelectedID != second {
		t.Errorf("selected = %q, want %q", m.state.SelectedID, second)
	}
}

func TestModel_CreatorHasNoReviewActions(t *testing.T) {
	m := newTestModel(t, session.RoleCreator)

	if cmd := press(m, "a"); cmd != nil {
		t.Error("approve must not start for a creator")
	}
	if m.busy != "" {
		t.Errorf("busy = %q", m.busy)
	}
	view := m.View()
	if !strings.Contains(view, "Review actions are not available to your role.") {
		t.Error("creator should be told review actions are unavailable")
	}
	if strings.Contains(view, "a approve") {
		t.Error("creator must not be offered approve")
	}
}

func TestModel_AuditFlow(t *testing.T) {
	var loaded string
	loader := func(path string) (audit.Image, error) {
		loaded = path
		if path == "missing.png" {
			return audit.Image{}, errors.New("load image: missing.png: no such file")
		}
		return audit.NewImage(path, "image/png", testutil.PNG(t, 1200, 900)), nil
	}
	m := newTestModel(t, session.RoleApproverB, WithImageLoader(loader))

	if strings.Contains(m.View(), "u audit item") {
		t.Error("audit should not be offered before an image is chosen")
	}

	press(m, "i")
	press(m, "missing.png")
	press(m, "enter")
	if m.localErr == nil || !strings.Contains(m.View(), "no such file") {
		t.Error("a bad image path should be reported")
	}

	press(m, "i")
	press(m, "hero.png")
	press(m, "enter")
	if loaded != "hero.png" || !m.state.Image.Present() {
		t.Fatalf("image not chosen (loaded %q)", loaded)
	}

	settle(t, m, press(m, "u"))
	if m.state.Report == nil || m.state.Report.Verdict != content.VerdictCheck {
		t.Fatalf("report = %+v, want CHECK", m.state.Report)
	}
	if m.state.Notice != review.NoticeAuditCheck {
		t.Errorf("notice = %q", m.state.Notice)
	}
	if !strings.Contains(m.View(), "/evidence/") {
		t.Error("view should show the evidence link")
	}
}

func TestModel_BrandAuditWithEmptyInbox(t *testing.T) {
	loader := func(path string) (audit.Image, error) {
		return audit.NewImage(path, "image/png", testutil.PNG(t, 1000, 1000)), nil
	}
	m := newTestModel(t, session.RoleApproverB, WithImageLoader(loader))
	ctx := testutil.TestContext(t)

	press(m, "i")
	press(m, "logo.png")
	press(m, "enter")

	brand := m.state.Items[0].BrandID
	press(m, "b")
	if m.mode != modeBrand || m.input.Value() != brand {
		t.Fatalf("mode = %v, input = %q; want the selected item's brand %q", m.mode, m.input.Value(), brand)
	}
	press(m, "esc")

	for _, it := range m.state.Items {
		if err := m.desk.Approve(ctx, it.ID, ""); err != nil {
			t.Fatalf("approve %s: %v", it.ID, err)
		}
	}
	m.syncState()
	if len(m.state.Items) != 0 {
		t.Fatalf("items = %d, want an empty inbox", len(m.state.Items))
	}
	if !strings.Contains(m.View(), "b audit brand") {
		t.Error("brand audit should be offered without any item")
	}

	press(m, "b")
	if m.mode != modeBrand || m.input.Value() != "" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}
	press(m, brand)
	settle(t, m, press(m, "enter"))

	r := m.state.Report
	if r == nil || r.TargetKind != content.TargetBrand || r.Target != brand {
		t.Fatalf("report = %+v, want a brand report for %s", r, brand)
	}
	if r.Verdict != content.VerdictCheck {
		t.Errorf("verdict = %s, want CHECK", r.Verdict)
	}
	if !strings.Contains(m.View(), "/evidence/") {
		t.Error("view should show the brand report without a selection")
	}
}

func TestModel_EscapeCancelsInput(t *testing.T) {
	m := newTestModel(t, session.RoleApproverA)

	press(m, "c")
	press(m, "draft")
	press(m, "esc")
	if m.mode != modeBrowse || m.state.Comment != "" {
		t.Errorf("mode = %v, comment = %q; esc should discard", m.mode, m.state.Comment)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}
