// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sync"
	"time"
)

// Stats accumulates batch progress. It is the only state shared between
// workers and is safe for concurrent use; everything else in a run is
// per-paper.
type Stats struct {
	mu sync.Mutex

	total      int
	processed  int
	skipped    int
	errors     int
	official   int
	unofficial int
	noneFound  int

	// avg is a moving average of per-paper processing time, weighted
	// toward recent papers so the ETA tracks rate changes within a batch.
	avg time.Duration
}

// Snapshot is a point-in-time copy of the accumulator.
type Snapshot struct {
	Total      int
	Processed  int
	Skipped    int
	Errors     int
	Official   int
	Unofficial int
	NoneFound  int
	ETA        time.Duration
}

func newStats(total int) *Stats {
	return &Stats{total: total}
}

func (s *Stats) observeSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	s.skipped++
}

func (s *Stats) observeError(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	s.errors++
	s.observeDurationLocked(elapsed)
}

func (s *Stats) observeDone(repoType string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	switch repoType {
	case "official":
		s.official++
	case "unofficial":
		s.unofficial++
	default:
		s.noneFound++
	}
	s.observeDurationLocked(elapsed)
}

func (s *Stats) observeDurationLocked(elapsed time.Duration) {
	if s.avg == 0 {
		s.avg = elapsed
		return
	}
	s.avg = (s.avg*4 + elapsed) / 5
}

// Snapshot returns current progress. ETA assumes the remaining papers take
// the moving-average duration each, divided across nothing: per-paper wall
// time already reflects worker parallelism from the caller's perspective.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Total:      s.total,
		Processed:  s.processed,
		Skipped:    s.skipped,
		Errors:     s.errors,
		Official:   s.official,
		Unofficial: s.unofficial,
		NoneFound:  s.noneFound,
	}
	remaining := s.total - s.processed
	if remaining > 0 && s.avg > 0 {
		snap.ETA = time.Duration(remaining) * s.avg
	}
	return snap
}
