// Package app assembles a review desk from settings: backend client, session,
// state file, notifiers and the desk itself. The CLI and the terminal UI both
// start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/backend"
	"github.com/randalmurphal/reviewdesk/config"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/inbox"
	"github.com/randalmurphal/reviewdesk/journal"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/review"
	"github.com/randalmurphal/reviewdesk/selection"
	"github.com/randalmurphal/reviewdesk/session"
)

// App is a wired review desk.
type App struct {
	Settings config.Settings
	Logger   *slog.Logger
	Backend  *backend.Client
	Session  *session.Context
	Store    *selection.FileStore
	Notifier notify.Notifier
	Journal  *journal.FileStore
	Desk     *review.Desk

	mu      sync.Mutex
	watcher *session.Watcher
	source  *recordingSource
}

// Open wires an App. A nil logger means slog.Default().
func Open(s config.Settings, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := selection.NewFileStore(selection.StoreConfig{BaseDir: s.StateDir})
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	client := backend.NewClient(backend.Config{
		BaseURL:    s.APIBase,
		Timeout:    s.Timeout,
		MaxRetries: s.Retries,
		Logger:     logger,
	})
	sess := session.New(client, logger)
	jr, err := journal.NewFileStore(journal.StoreConfig{BaseDir: s.StateDir})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	notifier := notify.Build(notify.Options{
		WebhookURL:      s.NotifyWebhookURL,
		SlackWebhookURL: s.SlackWebhookURL,
		SlackChannel:    s.SlackChannel,
		Logger:          logger,
		Timeout:         s.Timeout,
		Extra:           []notify.Notifier{journal.NewNotifier(jr)},
	})

	desk := review.New(review.Config{
		Session:     sess,
		Inbox:       inbox.NewRepository(client, logger),
		Transitions: client,
		Auditor:     audit.NewAuditor(client, logger),
		Store:       store,
		Notifier:    notifier,
		Logger:      logger,
	})

	return &App{
		Settings: s,
		Logger:   logger,
		Backend:  client,
		Session:  sess,
		Store:    store,
		Notifier: notifier,
		Journal:  jr,
		Desk:     desk,
	}, nil
}

func (a *App) login() backend.LoginConfig {
	return backend.LoginConfig{TokenURL: a.Settings.AuthURL, ClientID: a.Settings.ClientID}
}

// Login performs a password grant, stores the credential and signs the desk
// in with it.
func (a *App) Login(ctx context.Context, username, password string) (session.Role, error) {
	tok, err := backend.PasswordLogin(ctx, a.login(), username, password)
	if err != nil {
		return session.RoleNone, err
	}
	if err := a.saveToken(username, tok); err != nil {
		return session.RoleNone, err
	}
	a.track(username, tok)
	return a.Desk.SignIn(ctx, session.Credential{Token: tok.AccessToken, Subject: username})
}

// Logout forgets the stored credential and resets the desk.
func (a *App) Logout() error {
	a.mu.Lock()
	a.watcher, a.source = nil, nil
	a.mu.Unlock()

	a.Desk.SignOut()
	return a.Store.ClearCredential()
}

// Restore signs in with the configured token, or else the one saved by
// login. With neither it returns RoleNone and no error.
func (a *App) Restore(ctx context.Context) (session.Role, error) {
	if a.Settings.Token != "" {
		return a.Desk.SignIn(ctx, session.Credential{Token: a.Settings.Token})
	}

	cred, err := a.Store.LoadCredential()
	if errors.Is(err, selection.ErrNoCredential) {
		return session.RoleNone, nil
	}
	if err != nil {
		return session.RoleNone, err
	}

	tok := &oauth2.Token{AccessToken: cred.Token, RefreshToken: cred.RefreshToken, Expiry: cred.Expiry}
	a.track(cred.Subject, tok)
	if cred.RefreshToken == "" {
		return a.Desk.SignIn(ctx, session.Credential{Token: cred.Token, Subject: cred.Subject})
	}
	changed, err := a.Sync(ctx)
	if err != nil {
		return session.RoleNone, err
	}
	if !changed {
		return a.Desk.Start(ctx)
	}
	// Sync already resolved the role of the new credential.
	if err := a.Desk.Refresh(ctx); err != nil && !rderrors.IsStale(err) {
		return a.Session.Snapshot().Role, err
	}
	return a.Session.Snapshot().Role, nil
}

// Sync asks the login's token source for a current token. A refreshed token
// replaces the session credential, which resets the desk, and is written
// back to the state file. It reports whether the credential changed.
func (a *App) Sync(ctx context.Context) (bool, error) {
	a.mu.Lock()
	w, src := a.watcher, a.source
	a.mu.Unlock()
	if w == nil {
		return false, nil
	}

	changed, err := w.Sync(ctx)
	if tok := src.take(); tok != nil {
		if serr := a.saveToken(src.subject, tok); serr != nil {
			a.Logger.Warn("could not store refreshed token", "subject", src.subject, "error", serr)
		}
	}
	return changed, err
}

// track starts following tok through the provider's token source. Refresh
// requests outlive the caller's context, so the source gets its own.
func (a *App) track(subject string, tok *oauth2.Token) {
	src := &recordingSource{
		src:     backend.TokenSource(context.Background(), a.login(), tok),
		subject: subject,
		last:    tok.AccessToken,
	}
	a.mu.Lock()
	a.source = src
	a.watcher = session.NewWatcher(src, a.Session, subject)
	a.mu.Unlock()
}

func (a *App) saveToken(subject string, tok *oauth2.Token) error {
	return a.Store.SaveCredential(selection.Credential{
		Token:        tok.AccessToken,
		Subject:      subject,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
}

// recordingSource remembers tokens it has not handed out before so they can
// be persisted.
type recordingSource struct {
	src     oauth2.TokenSource
	subject string

	mu    sync.Mutex
	last  string
	fresh *oauth2.Token
}

func (r *recordingSource) Token() (*oauth2.Token, error) {
	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if tok.AccessToken != r.last {
		r.last = tok.AccessToken
		r.fresh = tok
	}
	r.mu.Unlock()
	return tok, nil
}

func (r *recordingSource) take() *oauth2.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok := r.fresh
	r.fresh = nil
	return tok
}
