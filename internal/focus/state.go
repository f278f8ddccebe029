package focus

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// PersistedState is the countdown mirror written on every state change so a
// reload can reconstruct the session. Absence means no session to restore.
type PersistedState struct {
	SessionID             string `json:"sessionId"`
	EndTime               int64  `json:"endTime"`  // epoch ms
	Duration              int    `json:"duration"` // minutes
	IsPaused              bool   `json:"isPaused"`
	PausedAt              int64  `json:"pausedAt,omitempty"`    // epoch ms
	AccumulatedPausedTime int64  `json:"accumulatedPausedTime"` // ms
}

// StateStore persists the countdown mirror. Load returns (nil, nil) when no
// state has been saved.
type StateStore interface {
	Save(state *PersistedState) error
	Load() (*PersistedState, error)
	Clear() error
}

// FileStateStore keeps the mirror in a single JSON file, the server-side
// analog of per-tab storage.
type FileStateStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (s *FileStateStore) Save(state *PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal focus state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write focus state: %w", err)
	}
	return nil
}

func (s *FileStateStore) Load() (*PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read focus state: %w", err)
	}

	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode focus state: %w", err)
	}
	return &state, nil
}

func (s *FileStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear focus state: %w", err)
	}
	return nil
}

// MemoryStateStore is an in-memory StateStore for tests and degraded mode.
type MemoryStateStore struct {
	mu    sync.Mutex
	state *PersistedState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Save(state *PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.state = &copied
	return nil
}

func (s *MemoryStateStore) Load() (*PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	copied := *s.state
	return &copied, nil
}

func (s *MemoryStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}
