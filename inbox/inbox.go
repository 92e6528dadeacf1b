// Package inbox fetches the content items the backend shows to the current
// role. The server decides visibility; nothing here filters by role.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/reviewdesk/content"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/session"
)

// ErrNotVisible indicates the item is not in the caller's inbox.
var ErrNotVisible = errors.New("item not visible")

// Lister returns the caller's inbox in server order.
type Lister interface {
	Inbox(ctx context.Context, credential string) ([]content.Item, error)
}

// Repository reads the inbox. It holds no state between calls and may be
// called again at any time to reconcile after a mutation.
type Repository struct {
	lister Lister
	logger *slog.Logger
}

// NewRepository creates a Repository.
func NewRepository(l Lister, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{lister: l, logger: logger}
}

// List returns the items visible to the session's credential. On failure the
// caller's previous list must be kept; List never returns a partial result.
func (r *Repository) List(ctx context.Context, snap session.Snapshot) ([]content.Item, error) {
	if snap.Credential.Empty() {
		return nil, rderrors.NewNotAuthenticatedError("list inbox")
	}
	items, err := r.lister.Inbox(ctx, snap.Credential.Token)
	if err != nil {
		return nil, rderrors.Classify("list inbox", rderrors.KindFetch, "", string(snap.Role), err)
	}
	out := make([]content.Item, len(items))
	copy(out, items)
	r.logger.Debug("inbox listed", "items", len(out), "role", snap.Role)
	return out, nil
}

// Lookup fetches the inbox and returns the item with id.
func (r *Repository) Lookup(ctx context.Context, snap session.Snapshot, id string) (content.Item, error) {
	items, err := r.List(ctx, snap)
	if err != nil {
		return content.Item{}, err
	}
	it, ok := content.Find(items, id)
	if !ok {
		return content.Item{}, &rderrors.FetchError{
			Op:   "lookup",
			Text: fmt.Sprintf("content %s is not in your inbox", id),
			Err:  ErrNotVisible,
		}
	}
	return it, nil
}
