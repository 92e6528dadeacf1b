package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/randalmurphal/reviewdesk/app"
	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/review"
	"github.com/randalmurphal/reviewdesk/session"
	"github.com/randalmurphal/reviewdesk/tui"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login", "[--username EMAIL]")
	username := fs.String("username", "", "account email (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	if *username == "" {
		if *username, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := c.prompt("Password: ")
	if err != nil {
		return err
	}
	role, err := a.Login(ctx, strings.TrimSpace(*username), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Signed in as %s (%s).\n", strings.TrimSpace(*username), role.Label())
	return nil
}

func (c *cli) logout(_ context.Context, args []string) error {
	if err := c.flags("logout", "").Parse(args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	if err := a.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Signed out.")
	return nil
}

func (c *cli) whoami(ctx context.Context, args []string) error {
	if err := c.flags("whoami", "").Parse(args); err != nil {
		return err
	}
	a, err := c.signedIn(ctx, "whoami")
	if err != nil {
		return err
	}
	st := a.Desk.State()
	if st.Subject != "" {
		fmt.Fprintf(c.stdout, "User:    %s\n", st.Subject)
	}
	fmt.Fprintf(c.stdout, "Role:    %s\n", st.Role.Label())
	fmt.Fprintf(c.stdout, "Actions: %s\n", roleActions(st.Role))
	return nil
}

// roleActions describes what role may do in general, independent of
// any selection.
func roleActions(role session.Role) string {
	var out []string
	if policy.CanApprove(role, content.StatusPending) {
		out = append(out, "approve", "reject")
	}
	if policy.CanAudit(role) {
		out = append(out, "audit", "audit-brand")
	}
	if len(out) == 0 {
		return "none (review actions are not available to your role)"
	}
	return strings.Join(out, ", ")
}

func (c *cli) inbox(ctx context.Context, args []string) error {
	if err := c.flags("inbox", "").Parse(args); err != nil {
		return err
	}
	a, err := c.signedIn(ctx, "inbox")
	if err != nil {
		return err
	}
	st := a.Desk.State()
	if st.Err != nil {
		return st.Err
	}
	if len(st.Items) == 0 {
		fmt.Fprintln(c.stdout, "No items.")
		return nil
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTYPE\tSTATUS\tBRAND\tCREATED")
	for _, it := range st.Items {
		mark := ""
		if it.ID == st.SelectedID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, it.ID, it.Type.Label(), it.Status, it.BrandID, it.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (c *cli) selectItem(ctx context.Context, args []string) error {
	fs := c.flags("select", "ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	a, err := c.signedIn(ctx, "select")
	if err != nil {
		return err
	}
	if err := a.Desk.Select(fs.Arg(0)); err != nil {
		return err
	}
	st := a.Desk.State()
	it, _ := st.Selected()
	fmt.Fprintf(c.stdout, "Selected %s (%s, %s).\n", it.ID, it.Type.Label(), it.Status)
	c.printDetail(it)
	return nil
}

func (c *cli) printDetail(it content.Item) {
	fmt.Fprintf(c.stdout, "\nBrief:\n  %s\n\nOutput:\n  %s\n",
		strings.ReplaceAll(it.InputBrief, "\n", "\n  "),
		strings.ReplaceAll(it.OutputText, "\n", "\n  "))
}

func (c *cli) approve(ctx context.Context, args []string) error {
	return c.decide(ctx, "approve", args, (*review.Desk).Approve, (*review.Desk).ApproveSelected)
}

func (c *cli) reject(ctx context.Context, args []string) error {
	return c.decide(ctx, "reject", args, (*review.Desk).Reject, (*review.Desk).RejectSelected)
}

func (c *cli) decide(ctx context.Context, op string, args []string,
	byID func(*review.Desk, context.Context, string, string) error,
	selected func(*review.Desk, context.Context) error,
) error {
	fs := c.flags(op, "[--comment TEXT] [ID]")
	comment := fs.String("comment", "", "reviewer comment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return errUsage
	}
	a, err := c.signedIn(ctx, op)
	if err != nil {
		return err
	}
	d := a.Desk
	id := d.State().SelectedID
	if fs.NArg() == 1 {
		id = fs.Arg(0)
		err = byID(d, ctx, id, *comment)
	} else {
		d.SetComment(*comment)
		err = selected(d, ctx)
	}
	if err != nil {
		return err
	}
	st := d.State()
	fmt.Fprintf(c.stdout, "Content %s %s.\n", id, st.Notice)
	if ce := rderrors.Describe(st.Err); ce != nil {
		fmt.Fprintln(c.stderr, "Warning: inbox not refreshed:", ce.Message)
	}
	return nil
}

func (c *cli) auditItem(ctx context.Context, args []string) error {
	fs := c.flags("audit", "--image PATH [ID]")
	path := fs.String("image", "", "image file to audit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || fs.NArg() > 1 {
		fs.Usage()
		return errUsage
	}
	a, img, err := c.auditSetup(ctx, "audit", *path)
	if err != nil {
		return err
	}
	var report content.AuditReport
	if fs.NArg() == 1 {
		report, err = a.Desk.AuditItem(ctx, fs.Arg(0), &img)
	} else {
		a.Desk.SetImage(&img)
		report, err = a.Desk.AuditSelected(ctx)
	}
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *cli) auditBrand(ctx context.Context, args []string) error {
	fs := c.flags("audit-brand", "--image PATH BRAND_ID")
	path := fs.String("image", "", "image file to audit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	a, img, err := c.auditSetup(ctx, "audit-brand", *path)
	if err != nil {
		return err
	}
	report, err := a.Desk.AuditBrand(ctx, fs.Arg(0), &img)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

func (c *cli) auditSetup(ctx context.Context, op, path string) (*app.App, audit.Image, error) {
	img, err := audit.LoadImage(path)
	if err != nil {
		return nil, audit.Image{}, rderrors.NewPreconditionError(op, err.Error())
	}
	a, err := c.signedIn(ctx, op)
	if err != nil {
		return nil, audit.Image{}, err
	}
	return a, img, nil
}

func (c *cli) printReport(r content.AuditReport) {
	fmt.Fprintf(c.stdout, "Verdict: %s\n", r.Verdict)
	if len(r.Violations) > 0 {
		fmt.Fprintln(c.stdout, "\nViolations:")
		for _, v := range r.Violations {
			fmt.Fprintf(c.stdout, "  - %s: %s\n", v.Rule, v.Evidence)
			if v.Fix != "" {
				fmt.Fprintf(c.stdout, "    fix: %s\n", v.Fix)
			}
		}
	}
	if len(r.Notes) > 0 {
		fmt.Fprintln(c.stdout, "\nNotes:")
		for _, n := range r.Notes {
			fmt.Fprintf(c.stdout, "  - %s\n", n)
		}
	}
	if r.EvidenceURI != "" {
		fmt.Fprintf(c.stdout, "\nEvidence: %s\n", r.EvidenceURI)
	}
}

func (c *cli) tui(ctx context.Context, args []string) error {
	if err := c.flags("tui", "").Parse(args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	if _, err := a.Restore(ctx); err != nil && !rderrors.IsAuthError(err) {
		return err
	}
	if !a.Desk.State().SignedIn {
		return rderrors.NewNotAuthenticatedError("tui")
	}
	err = tui.Run(ctx, a.Desk,
		tui.WithServerURL(a.Settings.APIBase),
		tui.WithSync(func(ctx context.Context) error {
			_, err := a.Sync(ctx)
			return err
		}),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
