// Package tui is the terminal front end of the review desk. It renders the
// desk state and turns key presses into desk intents; every rule lives in
// the review package.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/review"
)

type mode int

const (
	modeBrowse mode = iota
	modeComment
	modeImage
	modeBrand
)

// Option customizes a Model.
type Option func(*Model)

// WithImageLoader replaces audit.LoadImage for the image prompt.
func WithImageLoader(load func(path string) (audit.Image, error)) Option {
	return func(m *Model) {
		if load != nil {
			m.loadImage = load
		}
	}
}

// WithSync runs sync before every manual refresh, e.g. to pick up a
// refreshed login token.
func WithSync(sync func(context.Context) error) Option {
	return func(m *Model) {
		m.sync = sync
	}
}

// WithServerURL names the backend in connection error messages.
func WithServerURL(url string) Option {
	return func(m *Model) {
		m.serverURL = url
	}
}

// doneMsg reports a finished desk intent.
type doneMsg struct {
	op  string
	err error
}

type itemEntry struct {
	item     content.Item
	selected bool
}

func (e itemEntry) Title() string {
	mark := "  "
	if e.selected {
		mark = "▸ "
	}
	return mark + e.item.Type.Label()
}

func (e itemEntry) Description() string {
	return fmt.Sprintf("%s · %s", e.item.Status, truncate(e.item.InputBrief, 40))
}

func (e itemEntry) FilterValue() string { return e.item.InputBrief }

// Model is the bubbletea model over a review.Desk.
type Model struct {
	ctx       context.Context
	desk      *review.Desk
	state     review.State
	list      list.Model
	input     textinput.Model
	mode      mode
	busy      string
	localErr  error
	loadImage func(string) (audit.Image, error)
	sync      func(context.Context) error
	serverURL string
	width     int
	height    int
}

// New creates a model. ctx bounds every backend call the model starts.
func New(ctx context.Context, desk *review.Desk, opts ...Option) *Model {
	items := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	items.Title = "Inbox"
	items.SetShowStatusBar(false)
	items.SetFilteringEnabled(false)
	items.SetShowHelp(false)

	input := textinput.New()
	input.CharLimit = 2000

	m := &Model{
		ctx:       ctx,
		desk:      desk,
		list:      items,
		input:     input,
		loadImage: audit.LoadImage,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.syncState()
	return m
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, desk *review.Desk, opts ...Option) error {
	_, err := tea.NewProgram(New(ctx, desk, opts...), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Init loads the inbox.
func (m *Model) Init() tea.Cmd {
	return m.start("refresh", m.desk.Refresh)
}

func (m *Model) start(op string, f func(context.Context) error) tea.Cmd {
	m.busy = op
	m.localErr = nil
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{op: op, err: f(ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(max(20, msg.Width/3), max(5, msg.Height-6))
		return m, nil

	case doneMsg:
		m.busy = ""
		m.syncState()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			return m, m.updateInput(msg)
		}
		return m, m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "q" {
		return tea.Quit
	}
	if m.busy != "" {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}

	switch key {
	case "r":
		return m.start("refresh", func(ctx context.Context) error {
			if m.sync != nil {
				if err := m.sync(ctx); err != nil {
					return err
				}
			}
			return m.desk.Refresh(ctx)
		})
	case "enter", " ":
		if e, ok := m.list.SelectedItem().(itemEntry); ok {
			m.localErr = nil
			_ = m.desk.Select(e.item.ID)
			m.syncState()
		}
		return nil
	case "a":
		if m.offers(policy.ActionApprove) {
			return m.start("approve", m.desk.ApproveSelected)
		}
	case "x":
		if m.offers(policy.ActionReject) {
			return m.start("reject", m.desk.RejectSelected)
		}
	case "c":
		if m.offers(policy.ActionApprove) || m.offers(policy.ActionReject) {
			return m.openInput(modeComment, "comment: ", m.state.Comment)
		}
	case "i":
		if policy.CanAudit(m.state.Role) {
			return m.openInput(modeImage, "image path: ", "")
		}
	case "u":
		if m.offers(policy.ActionAuditItem) {
			return m.start("audit", func(ctx context.Context) error {
				_, err := m.desk.AuditSelected(ctx)
				return err
			})
		}
	case "b":
		if m.offers(policy.ActionAuditBrand) {
			brand := ""
			if it, ok := m.state.Selected(); ok {
				brand = it.BrandID
			}
			return m.openInput(modeBrand, "brand id: ", brand)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) openInput(md mode, prompt, value string) tea.Cmd {
	m.mode = md
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		md := m.mode
		m.closeInput()
		return m.commitInput(md, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
}

// commitInput applies a confirmed prompt. A brand id starts the brand audit,
// which needs no item in the inbox.
func (m *Model) commitInput(md mode, value string) tea.Cmd {
	m.localErr = nil
	switch md {
	case modeComment:
		m.desk.SetComment(value)
	case modeImage:
		if value == "" {
			m.desk.SetImage(nil)
			break
		}
		img, err := m.loadImage(value)
		if err != nil {
			m.localErr = err
			return nil
		}
		m.desk.SetImage(&img)
	case modeBrand:
		if value == "" {
			return nil
		}
		return m.start("audit brand", func(ctx context.Context) error {
			_, err := m.desk.AuditBrand(ctx, value, nil)
			return err
		})
	}
	m.syncState()
	return nil
}

func (m *Model) offers(action policy.Action) bool {
	return slices.Contains(m.state.Available(), action)
}

// syncState copies the desk state and rebuilds the list, keeping the cursor
// on the selected item.
func (m *Model) syncState() {
	m.state = m.desk.State()

	entries := make([]list.Item, len(m.state.Items))
	cursor := m.list.Index()
	for i, it := range m.state.Items {
		entries[i] = itemEntry{item: it, selected: it.ID == m.state.SelectedID}
		if it.ID == m.state.SelectedID {
			cursor = i
		}
	}
	m.list.SetItems(entries)
	if len(entries) > 0 {
		m.list.Select(min(cursor, len(entries)-1))
	}
}

// View renders the screen.
func (m *Model) View() string {
	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.list.View()),
		paneStyle.Width(max(30, m.width-m.list.Width()-8)).Render(m.renderDetail()),
	)
	parts := []string{header, body, m.renderStatus()}
	if m.mode != modeBrowse {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.renderKeys())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderHeader() string {
	if !m.state.SignedIn {
		return titleStyle.Render("reviewdesk") + mutedStyle.Render(" · not signed in")
	}
	who := m.state.Subject
	if who == "" {
		who = "signed in"
	}
	return titleStyle.Render("reviewdesk") + mutedStyle.Render(fmt.Sprintf(" · %s · %s", who, m.state.Role.Label()))
}

func (m *Model) renderDetail() string {
	it, ok := m.state.Selected()
	if !ok {
		msg := mutedStyle.Render("No item selected. Press enter on an item.")
		if len(m.state.Items) == 0 {
			msg = mutedStyle.Render("Inbox is empty.")
		}
		if r := m.state.Report; r != nil {
			msg += "\n\n" + renderReport(*r)
		}
		return msg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(it.Type.Label()))
	fmt.Fprintf(&b, "%s %s   %s %s\n", labelStyle.Render("Status"), it.Status, labelStyle.Render("Brand"), it.BrandID)
	if !it.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Created"), it.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", labelStyle.Render("Brief"), detailStyle.Render(it.InputBrief))
	fmt.Fprintf(&b, "\n%s\n%s\n", labelStyle.Render("Output"), detailStyle.Render(it.OutputText))

	if m.state.Comment != "" {
		fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("Comment"), m.state.Comment)
	}
	if m.state.Image.Present() {
		fmt.Fprintf(&b, "\n%s %s (%s, %d bytes)\n", labelStyle.Render("Image"), m.state.Image.Filename, m.state.Image.ContentType, len(m.state.Image.Data))
	}
	if r := m.state.Report; r != nil {
		b.WriteString("\n" + renderReport(*r))
	}
	return b.String()
}

func renderReport(r content.AuditReport) string {
	var b strings.Builder
	verdict := noticeStyle.Render(string(r.Verdict))
	if !r.Passed() {
		verdict = warnStyle.Render(string(r.Verdict))
	}
	fmt.Fprintf(&b, "%s %s (%s %s)\n", labelStyle.Render("Audit"), verdict, r.TargetKind, r.Target)
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  • %s\n    %s\n    fix: %s\n", v.Rule, detailStyle.Render(v.Evidence), v.Fix)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(n))
	}
	if r.EvidenceURI != "" {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(r.EvidenceURI))
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.busy != "" {
		return mutedStyle.Render(m.busy + "…")
	}
	err := m.localErr
	if err == nil {
		err = m.state.Err
	}
	if ce := rderrors.Describe(err, rderrors.WithServerURL(m.serverURL)); ce != nil {
		line := errorStyle.Render(ce.Message)
		if ce.Suggestion != "" {
			line += mutedStyle.Render("  " + ce.Suggestion)
		}
		return line
	}
	if m.state.Notice != "" {
		return noticeStyle.Render(m.state.Notice)
	}
	if m.state.SignedIn && !m.state.Role.Approver() {
		return mutedStyle.Render("Review actions are not available to your role.")
	}
	return ""
}

var actionKeys = []struct {
	action policy.Action
	hint   string
}{
	{policy.ActionApprove, "a approve"},
	{policy.ActionReject, "x reject"},
	{policy.ActionAuditItem, "u audit item"},
	{policy.ActionAuditBrand, "b audit brand"},
}

func (m *Model) renderKeys() string {
	hints := []string{"↑/↓ move", "enter select", "r refresh"}
	if m.offers(policy.ActionApprove) || m.offers(policy.ActionReject) {
		hints = append(hints, "c comment")
	}
	if policy.CanAudit(m.state.Role) {
		hints = append(hints, "i image")
	}
	for _, k := range actionKeys {
		if m.offers(k.action) {
			hints = append(hints, k.hint)
		}
	}
	hints = append(hints, "q quit")
	return keyHintStyle.Render(strings.Join(hints, " · "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
