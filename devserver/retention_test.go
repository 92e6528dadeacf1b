package devserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/randalmurphal/reviewdesk/auth"
	"github.com/randalmurphal/reviewdesk/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePruneImages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(func() time.Time { return now })

	s.putImage("old", "image/png", make([]byte, 10))
	now = now.Add(time.Hour)
	s.putImage("new", "image/png", make([]byte, 5))

	res := s.PruneImages(now.Add(-time.Minute))
	assert.Equal(t, PruneResult{Deleted: 1, Kept: 1, BytesFreed: 10}, res)

	_, ok := s.image("old")
	assert.False(t, ok)
	_, ok = s.image("new")
	assert.True(t, ok)
}

func TestPruneEvidence(t *testing.T) {
	h := newHarness(t)

	status, body := h.upload("/brands/"+h.seed.Brand.ID+"/audit-image", session.RoleApproverB, pngOf(t, 1000, 1000))
	require.Equal(t, http.StatusOK, status, body)

	assert.Equal(t, PruneResult{Kept: 1}, h.srv.PruneEvidence())

	h.clock.Advance(auth.DefaultEvidenceTokenTTL + time.Second)
	res := h.srv.PruneEvidence()
	assert.Equal(t, 1, res.Deleted)
	assert.Zero(t, res.Kept)
	assert.Positive(t, res.BytesFreed)
}
