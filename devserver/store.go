package devserver

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/reviewdesk/auth"
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/session"
)

var (
	errNotFound       = errors.New("not found")
	errDuplicateEmail = errors.New("email already registered")
	errRefreshInvalid = errors.New("refresh token is invalid or expired")
)

// ConflictError is returned when an item has already left PENDING.
type ConflictError struct {
	ID     string
	Status content.Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("content %s is %s", e.ID, e.Status)
}

// User is an account known to the dev backend.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         session.Role
}

// Manual holds the visual rules of a brand manual.
type Manual struct {
	ID             string
	AllowedFormats []string
	MinWidth       int
	MinHeight      int
	// MaxAspectRatio bounds long side / short side. Zero disables the rule.
	MaxAspectRatio float64
}

// Brand owns a manual that audits are evaluated against.
type Brand struct {
	ID     string
	Name   string
	Manual Manual
}

type record struct {
	item      content.Item
	createdBy string
	comments  []string
}

type refreshGrant struct {
	userID  string
	expires time.Time
}

type storedImage struct {
	contentType string
	data        []byte
	stored      time.Time
}

// Store is the in-memory state of the dev backend. It is safe for concurrent
// use.
type Store struct {
	mu      sync.RWMutex
	users   map[string]User
	emails  map[string]string
	brands  map[string]Brand
	items   map[string]*record
	refresh map[string]refreshGrant
	ingest  map[string]string
	images  map[string]storedImage
	now     func() time.Time
}

// NewStore creates an empty store. A nil clock means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		users:   make(map[string]User),
		emails:  make(map[string]string),
		brands:  make(map[string]Brand),
		items:   make(map[string]*record),
		refresh: make(map[string]refreshGrant),
		ingest:  make(map[string]string),
		images:  make(map[string]storedImage),
		now:     now,
	}
}

// AddUser registers an account with a bcrypt-hashed password.
func (s *Store) AddUser(email, password string, role session.Role) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fmt.Errorf("add user: empty email")
	}
	if !role.Known() {
		return User{}, fmt.Errorf("add user %s: unknown role %q", email, role)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("add user %s: %w", email, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return User{}, fmt.Errorf("add user %s: %w", email, errDuplicateEmail)
	}
	u := User{ID: uuid.NewString(), Email: email, PasswordHash: hash, Role: role}
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return u, nil
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	u := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return User{}, auth.ErrBadCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return User{}, err
	}
	return u, nil
}

// User returns the account with the given ID.
func (s *Store) User(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// AddBrand registers a brand and its manual.
func (s *Store) AddBrand(name string, manual Manual) Brand {
	if manual.ID == "" {
		manual.ID = uuid.NewString()
	}
	b := Brand{ID: uuid.NewString(), Name: name, Manual: manual}

	s.mu.Lock()
	s.brands[b.ID] = b
	s.mu.Unlock()
	return b
}

// Brand returns the brand with the given ID.
func (s *Store) Brand(id string) (Brand, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	return b, ok
}

// AddItem stores a new PENDING item created by creatorID. The brand must
// exist; ID, status, manual and creation time are assigned here.
func (s *Store) AddItem(creatorID string, it content.Item) (content.Item, error) {
	if !it.Type.Valid() {
		return content.Item{}, fmt.Errorf("add item: unknown content type %q", it.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.brands[it.BrandID]
	if !ok {
		return content.Item{}, fmt.Errorf("add item: brand %s: %w", it.BrandID, errNotFound)
	}
	it.ID = uuid.NewString()
	it.Status = content.StatusPending
	it.BrandManualID = b.Manual.ID
	if it.CreatedAt.IsZero() {
		it.CreatedAt = s.now().UTC()
	}
	s.items[it.ID] = &record{item: it, createdBy: creatorID}
	return it, nil
}

// Item returns the item with the given ID regardless of visibility.
func (s *Store) Item(id string) (content.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return content.Item{}, false
	}
	return r.item, true
}

// Inbox lists what u may see: creators their own items, approvers every
// PENDING item. Newest first, ties broken by ID.
func (s *Store) Inbox(u User) []content.Item {
	s.mu.RLock()
	out := make([]content.Item, 0, len(s.items))
	for _, r := range s.items {
		switch {
		case u.Role == session.RoleCreator && r.createdBy == u.ID:
		case u.Role.Approver() && r.item.Pending():
		default:
			continue
		}
		out = append(out, r.item)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b content.Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Transition moves a PENDING item to a terminal status.
func (s *Store) Transition(id string, to content.Status, comment string) (content.Item, error) {
	if !to.Terminal() {
		return content.Item{}, fmt.Errorf("transition %s: %s is not a review outcome", id, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return content.Item{}, errNotFound
	}
	if !r.item.Pending() {
		return content.Item{}, &ConflictError{ID: id, Status: r.item.Status}
	}
	r.item.Status = to
	if comment != "" {
		r.comments = append(r.comments, comment)
	}
	return r.item, nil
}

// Comments returns the review comments recorded for an item.
func (s *Store) Comments(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.items[id]; ok {
		return slices.Clone(r.comments)
	}
	return nil
}

func (s *Store) grantRefresh(hash, userID string, ttl time.Duration) {
	s.mu.Lock()
	s.refresh[hash] = refreshGrant{userID: userID, expires: s.now().Add(ttl)}
	s.mu.Unlock()
}

// redeemRefresh consumes a refresh token. Each token works once.
func (s *Store) redeemRefresh(hash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.refresh[hash]
	delete(s.refresh, hash)
	if !ok || !s.now().Before(g.expires) {
		return User{}, errRefreshInvalid
	}
	u, ok := s.users[g.userID]
	if !ok {
		return User{}, errRefreshInvalid
	}
	return u, nil
}

// AddIngestKey registers an ingest key on behalf of a creator account.
func (s *Store) AddIngestKey(hash, creatorID string) {
	s.mu.Lock()
	s.ingest[hash] = creatorID
	s.mu.Unlock()
}

func (s *Store) ingestOwner(hash string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ingest[hash]
	if !ok {
		return User{}, false
	}
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) putImage(key, contentType string, data []byte) {
	s.mu.Lock()
	s.images[key] = storedImage{contentType: contentType, data: slices.Clone(data), stored: s.now()}
	s.mu.Unlock()
}

func (s *Store) image(key string) (storedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	return img, ok
}
