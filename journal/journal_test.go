package journal

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/reviewdesk/notify"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedEvents(t *testing.T, s *FileStore) {
	t.Helper()
	events := []notify.Event{
		{Type: notify.EventItemApproved, ItemID: "item-1", Actor: "a@example.test", Message: "approved",
			Metadata: map[string]any{"comment": "Looks on brand"}},
		{Type: notify.EventItemRejected, ItemID: "item-2", Actor: "b@example.test", Message: "rejected",
			Metadata: map[string]any{"comment": "Wrong palette"}},
		{Type: notify.EventAuditCompleted, BrandID: "brand-1", Actor: "b@example.test", Message: "FAIL: requires corrections"},
		{Type: notify.EventAuditCompleted, ItemID: "item-1", Actor: "b@example.test", Message: "CHECK: complies with manual"},
	}
	for i, ev := range events {
		ev.Timestamp = base.Add(time.Duration(i) * time.Hour)
		if _, err := s.Append(ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func seqs(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Seq
	}
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestList(t *testing.T) {
	s := newStore(t)
	seedEvents(t, s)

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"everything newest first", Filter{}, []int{4, 3, 2, 1}},
		{"by item", Filter{ItemID: "item-1"}, []int{4, 1}},
		{"by type", Filter{Types: []notify.EventType{notify.EventItemApproved, notify.EventItemRejected}}, []int{2, 1}},
		{"by actor ignores case", Filter{Actor: "B@EXAMPLE.TEST"}, []int{4, 3, 2}},
		{"since", Filter{Since: base.Add(2 * time.Hour)}, []int{4, 3}},
		{"query matches comment", Filter{Query: "palette"}, []int{2}},
		{"query matches brand", Filter{Query: "brand-1"}, []int{3}},
		{"limit", Filter{Limit: 2}, []int{4, 3}},
		{"no match", Filter{ItemID: "missing"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if !equal(seqs(got), tt.want) {
				t.Errorf("List() seqs = %v, want %v", seqs(got), tt.want)
			}
		})
	}
}

func TestAppendContinuesSequenceAcrossStores(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(StoreConfig{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	seedEvents(t, first)

	second, err := NewFileStore(StoreConfig{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	e, err := second.Append(notify.Event{Type: notify.EventItemApproved, ItemID: "item-9"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Seq != 5 {
		t.Errorf("Seq = %d, want 5", e.Seq)
	}
	if e.Timestamp.IsZero() {
		t.Error("Append() should stamp a zero timestamp")
	}
}

func TestListSkipsCorruptLines(t *testing.T) {
	s := newStore(t)
	seedEvents(t, s)

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n{\"seq\":0}\n")
	f.Close()

	got, err := s.List(Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
	if e, err := s.Append(notify.Event{Type: notify.EventItemRejected}); err != nil || e.Seq != 5 {
		t.Errorf("Append() = %d, %v; want seq 5", e.Seq, err)
	}
}

func TestListMissingFile(t *testing.T) {
	got, err := newStore(t).List(Filter{})
	if err != nil || len(got) != 0 {
		t.Errorf("List() = %v, %v; want empty", got, err)
	}
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	if _, err := NewFileStore(StoreConfig{}); err == nil {
		t.Error("expected an error")
	}
}

func TestNotifierRecordsReviewEvents(t *testing.T) {
	s := newStore(t)
	n := NewNotifier(s)
	ctx := context.Background()

	for _, ev := range []notify.Event{
		{Type: notify.EventSessionChanged, Message: "signed in"},
		{Type: notify.EventItemApproved, ItemID: "item-1"},
		{Type: notify.EventAuditCompleted, BrandID: "brand-1"},
	} {
		if err := n.Notify(ctx, ev); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
	}

	got, err := s.List(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Type != notify.EventAuditCompleted || got[1].Type != notify.EventItemApproved {
		t.Errorf("recorded = %+v", got)
	}

	only := NewNotifier(s, notify.EventSessionChanged)
	only.Notify(ctx, notify.Event{Type: notify.EventItemRejected})
	if got, _ := s.List(Filter{}); len(got) != 2 {
		t.Errorf("filtered notifier recorded an unlisted type")
	}
}

func TestWriteTable(t *testing.T) {
	s := newStore(t)
	seedEvents(t, s)
	entries, err := s.List(Filter{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, entries); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"EVENT", "approved", "rejected", "Wrong palette", "brand brand-1", "audit_completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 5 {
		t.Errorf("table has %d lines, want 5", lines)
	}
}

func TestDetailTruncates(t *testing.T) {
	e := Entry{Event: notify.Event{Metadata: map[string]any{"comment": strings.Repeat("x", 100)}}}
	if got := detail(e); len(got) != previewLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("detail() = %q", got)
	}
}
