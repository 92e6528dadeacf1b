// Package reviewdesk is a client for reviewing generated brand content.
//
// Creators submit product descriptions, video scripts and image prompts to a
// review backend. Approvers work through a shared inbox and approve or reject
// each pending item; the second approver can also audit imagery against a
// brand manual. This module holds the client side of that workflow and a
// small in-memory backend for local use.
//
// The code is organized into packages by concern:
//
//   - content: items, statuses, audit reports
//   - session: credential, role resolution, token refresh
//   - policy: which actions a role may take on an item
//   - inbox: listing the items visible to the current role
//   - audit: image payloads and audit preconditions
//   - review: the Desk, which owns selection, decisions and audits
//   - selection: the state file holding the selection and the credential
//   - journal: local record of decisions and audits
//   - backend: typed client for the review API
//   - http: JSON and multipart transport with retries
//   - errors: error taxonomy and user-facing messages
//   - notify: log, webhook and Slack notifications for review events
//   - config: layered configuration
//   - app: wiring shared by the CLI and the terminal UI
//   - tui: terminal UI
//   - auth, devserver: token minting and the in-memory backend
//   - testutil: test helpers
//
// # Quick Start
//
//	s, _ := config.Load(config.DefaultResolver().Resolve())
//	a, _ := app.Open(s, s.NewLogger(os.Stderr))
//	if _, err := a.Login(ctx, "approver-a@reviewdesk.test", password); err != nil {
//	    return err
//	}
//	for _, it := range a.Desk.State().Items {
//	    fmt.Println(it.ID, it.Type.Label(), it.Status)
//	}
//	err := a.Desk.Approve(ctx, id, "on brand")
//
// The reviewdesk command wraps the same calls; reviewdesk-devserver runs a
// seeded backend on localhost:8000.
package reviewdesk
