// Package session holds the current actor's credential and server-resolved role.
//
// The role is never derived from the credential locally. It is obtained from
// a RoleResolver once per credential and dropped whenever the credential
// changes. Every change bumps an epoch counter; components that issue remote
// calls capture the epoch at dispatch and discard responses whose epoch no
// longer matches.
//
// # Usage
//
//	sess := session.New(backendClient, logger)
//	sess.OnChange(func(s session.Snapshot) { desk.Reset() })
//
//	sess.Set(session.Credential{Token: tok, Subject: "ana@example.com"})
//	role, err := sess.Resolve(ctx)
//
// Token refresh from an OAuth2 provider is picked up with a Watcher:
//
//	w := session.NewWatcher(tokenSource, sess, "ana@example.com")
//	changed, err := w.Sync(ctx)
package session
