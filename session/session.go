package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	rderrors "github.com/randalmurphal/reviewdesk/errors"
)

// Credential is an opaque bearer token plus the subject it was issued to.
// Subject is informational (display, per-user state keys) and may be empty.
type Credential struct {
	Token   string
	Subject string
}

// Empty reports whether no credential is present.
func (c Credential) Empty() bool {
	return c.Token == ""
}

// RoleResolver asks the authority which role a credential carries.
type RoleResolver interface {
	ResolveRole(ctx context.Context, credential string) (Role, error)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	Credential Credential
	Role       Role
	Epoch      uint64
}

// Authenticated reports whether a credential is present and its role is known.
func (s Snapshot) Authenticated() bool {
	return !s.Credential.Empty() && s.Role.Known()
}

// Context is the single owner of the credential and role. Everything else
// reads it through Snapshot.
type Context struct {
	mu        sync.RWMutex
	cred      Credential
	role      Role
	epoch     uint64
	resolver  RoleResolver
	logger    *slog.Logger
	listeners []func(Snapshot)
}

// New creates an unauthenticated session context.
func New(resolver RoleResolver, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{resolver: resolver, logger: logger}
}

// OnChange registers fn to run after every credential change. Listeners run
// synchronously, outside the session lock.
func (c *Context) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Set installs a new credential. A different token starts a new epoch and
// forgets the role; setting the same token again is a no-op.
func (c *Context) Set(cred Credential) uint64 {
	c.mu.Lock()
	if cred.Token == c.cred.Token && cred.Subject == c.cred.Subject {
		epoch := c.epoch
		c.mu.Unlock()
		return epoch
	}
	c.cred = cred
	c.role = RoleNone
	c.epoch++
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	c.logger.Debug("session credential changed", "epoch", snap.Epoch, "subject", cred.Subject, "signed_in", !cred.Empty())
	for _, fn := range listeners {
		fn(snap)
	}
	return snap.Epoch
}

// Clear signs out.
func (c *Context) Clear() uint64 {
	return c.Set(Credential{})
}

// Snapshot returns the current credential, role and epoch.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	return Snapshot{Credential: c.cred, Role: c.role, Epoch: c.epoch}
}

// Epoch returns the current credential epoch.
func (c *Context) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Resolve asks the resolver for the role of the current credential.
//
// Any failure leaves the role at RoleNone; a previously resolved role is
// never kept. An authentication failure also drops the credential. If the
// credential changes while the call is in flight the answer is discarded and
// ErrStale is returned.
func (c *Context) Resolve(ctx context.Context) (Role, error) {
	snap := c.Snapshot()
	if snap.Credential.Empty() {
		return RoleNone, rderrors.NewNotAuthenticatedError("resolve role")
	}
	if c.resolver == nil {
		return RoleNone, fmt.Errorf("resolve role: no resolver configured")
	}

	role, err := c.resolver.ResolveRole(ctx, snap.Credential.Token)

	c.mu.Lock()
	if c.epoch != snap.Epoch {
		current := c.epoch
		c.mu.Unlock()
		c.logger.Debug("discarding stale role resolution", "dispatch_epoch", snap.Epoch, "current_epoch", current)
		return RoleNone, rderrors.ErrStale
	}
	if err != nil {
		c.role = RoleNone
		c.mu.Unlock()
		err = rderrors.Classify("resolve role", rderrors.KindFetch, "", "", err)
		c.logger.Warn("role resolution failed", "error", err)
		if rderrors.IsAuthError(err) {
			c.Clear()
		}
		return RoleNone, err
	}
	c.role = role
	c.mu.Unlock()

	c.logger.Debug("role resolved", "role", role, "epoch", snap.Epoch)
	return role, nil
}
