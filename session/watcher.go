package session

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Watcher mirrors an OAuth2 token source into a session Context. Each Sync
// asks the source for a token; a new access token (sign-in, refresh) is a
// credential change and resets the session.
type Watcher struct {
	src     oauth2.TokenSource
	sess    *Context
	subject string
}

// NewWatcher creates a watcher. The source is wrapped with
// oauth2.ReuseTokenSource so unexpired tokens are not re-fetched.
func NewWatcher(src oauth2.TokenSource, sess *Context, subject string) *Watcher {
	return &Watcher{
		src:     oauth2.ReuseTokenSource(nil, src),
		sess:    sess,
		subject: subject,
	}
}

// Sync pulls the current token. It reports whether the credential changed;
// when it did, the role is re-resolved before returning.
func (w *Watcher) Sync(ctx context.Context) (bool, error) {
	before := w.sess.Snapshot()

	tok, err := w.src.Token()
	if err != nil {
		// The provider can no longer vouch for us.
		w.sess.Clear()
		return !before.Credential.Empty(), fmt.Errorf("token source: %w", err)
	}

	if tok.AccessToken == before.Credential.Token {
		return false, nil
	}

	w.sess.Set(Credential{Token: tok.AccessToken, Subject: w.subject})
	if _, err := w.sess.Resolve(ctx); err != nil {
		return true, err
	}
	return true, nil
}
