package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/reviewdesk/notify"
)

// FileName is the journal file inside the store directory.
const FileName = "journal.jsonl"

// maxLine bounds a single encoded entry.
const maxLine = 1 << 20

// Entry is one recorded review event.
type Entry struct {
	Seq int `json:"seq"`
	notify.Event
}

// StoreConfig holds configuration for journal storage.
type StoreConfig struct {
	BaseDir string
}

// FileStore appends entries to a JSON Lines file. It is safe for concurrent
// use within one process.
type FileStore struct {
	path string

	mu  sync.Mutex
	seq int // last sequence number; -1 until the file has been scanned
}

// NewFileStore creates the store directory if needed.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("journal: base directory not configured")
	}
	if err := os.MkdirAll(config.BaseDir, 0o700); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return &FileStore{path: filepath.Join(config.BaseDir, FileName), seq: -1}, nil
}

// Path returns the journal file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append records ev and returns the stored entry.
func (s *FileStore) Append(ev notify.Event) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq < 0 {
		last := 0
		err := s.scan(func(e Entry) {
			last = max(last, e.Seq)
		})
		if err != nil {
			return Entry{}, err
		}
		s.seq = last
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	e := Entry{Seq: s.seq + 1, Event: ev}

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: encode: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return Entry{}, fmt.Errorf("journal: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return Entry{}, fmt.Errorf("journal: %w", err)
	}
	s.seq = e.Seq
	return e, nil
}

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	ItemID string
	Types  []notify.EventType
	Actor  string
	Since  time.Time

	// Query matches case-insensitively against the item, brand, message
	// and reviewer comment.
	Query string

	// Limit caps the number of entries returned, newest first.
	Limit int
}

func (f Filter) match(e Entry) bool {
	if f.ItemID != "" && e.ItemID != f.ItemID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.Actor != "" && !strings.EqualFold(e.Actor, f.Actor) {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, field := range []string{e.ItemID, e.BrandID, e.Message, Comment(e)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// List returns the entries matching f, newest first. Undecodable lines are
// skipped.
func (s *FileStore) List(f Filter) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	err := s.scan(func(e Entry) {
		if f.match(e) {
			out = append(out, e)
		}
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// scan calls fn for each decodable entry in file order. A missing file
// holds no entries.
func (s *FileStore) scan(fn func(Entry)) error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		e, err := decode(sc.Bytes())
		if err != nil {
			continue
		}
		fn(e)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("journal: read: %w", err)
	}
	return nil
}

func decode(line []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil || e.Seq <= 0 {
		return Entry{}, ErrCorrupt
	}
	return e, nil
}

// Comment returns the reviewer comment recorded with e, if any.
func Comment(e Entry) string {
	c, _ := e.Metadata["comment"].(string)
	return c
}
