package presence

import (
	"context"
	"sync"
	"time"
)

// LocalStore is the in-process fallback for degraded or local-development
// contexts. Counts are process-local and reset on restart.
type LocalStore struct {
	mu       sync.Mutex
	sessions map[string]int64 // sessionID -> last seen, seconds since epoch
}

// NewLocalStore creates an empty in-memory presence store.
func NewLocalStore() *LocalStore {
	return &LocalStore{sessions: make(map[string]int64)}
}

func (s *LocalStore) Touch(_ context.Context, sessionID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = now.Unix()
	return nil
}

func (s *LocalStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	limit := cutoff.Unix()
	for sid, ts := range s.sessions {
		if ts <= limit {
			delete(s.sessions, sid)
			removed++
		}
	}
	return removed, nil
}

func (s *LocalStore) Count(_ context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	min := since.Unix()
	for _, ts := range s.sessions {
		if ts >= min {
			count++
		}
	}
	return count, nil
}
