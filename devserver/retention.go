package devserver

import (
	"context"
	"time"
)

// PruneResult summarizes a retention pass.
type PruneResult struct {
	Deleted    int   `json:"deleted"`
	Kept       int   `json:"kept"`
	BytesFreed int64 `json:"bytesFreed"`
}

// PruneImages drops evidence images stored before cutoff.
func (s *Store) PruneImages(cutoff time.Time) PruneResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res PruneResult
	for key, img := range s.images {
		if img.stored.Before(cutoff) {
			res.Deleted++
			res.BytesFreed += int64(len(img.data))
			delete(s.images, key)
			continue
		}
		res.Kept++
	}
	return res
}

// PruneEvidence drops images whose evidence links can no longer be valid.
func (s *Server) PruneEvidence() PruneResult {
	res := s.store.PruneImages(s.store.now().Add(-s.jwt.EvidenceTTL()))
	if res.Deleted > 0 {
		s.logger.Info("pruned evidence images",
			"deleted", res.Deleted, "kept", res.Kept, "bytes_freed", res.BytesFreed)
	}
	return res
}

// runRetention prunes evidence every interval until ctx is done.
func (s *Server) runRetention(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.PruneEvidence()
		}
	}
}
