// Package focus runs a single-user countdown that survives reloads and tab
// backgrounding. Local time is the source of truth for the ticking display;
// the durable record only decides legitimacy at restore time.
package focus

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/LianruiSun/JobboCat/internal/common/errors"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
	"github.com/LianruiSun/JobboCat/internal/common/metrics"
	"github.com/LianruiSun/JobboCat/internal/models"
)

// Status is the countdown state. Paused is a sub-state of Running reached
// only while the hosting page is hidden.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Snapshot is the UI-facing view of the countdown.
type Snapshot struct {
	Status        Status        `json:"status"`
	Remaining     time.Duration `json:"remaining"`
	TodaySessions int           `json:"todaySessions"`
}

// Manager owns all mutable countdown state. Start, Stop, Pause, Resume and
// RestoreOnLoad are its only mutators; durable writes are best-effort side
// effects that never block a local transition.
type Manager struct {
	mu sync.Mutex

	userID   string
	status   Status
	recordID string
	endTime  time.Time
	duration time.Duration
	pausedAt time.Time
	accPause time.Duration

	todaySessions int
	restoring     bool
	generation    int
	stopTick      chan struct{}

	cfg      *Config
	sessions models.SessionRepository
	profiles models.ProfileRepository
	states   StateStore
	logger   logger.Logger

	now func() time.Time

	// onSyncFailure receives BackendSyncFailure notices. It must not
	// block; the countdown has already moved on when it fires.
	onSyncFailure func(err error)

	syncWG sync.WaitGroup
}

func NewManager(cfg *Config, userID string, sessions models.SessionRepository, profiles models.ProfileRepository, states StateStore, log logger.Logger) *Manager {
	m := &Manager{
		userID:   userID,
		status:   StatusIdle,
		cfg:      cfg.withDefaults(),
		sessions: sessions,
		profiles: profiles,
		states:   states,
		logger:   log.WithFields(map[string]interface{}{"component": "focus", "userId": userID}),
		now:      time.Now,
	}
	m.onSyncFailure = func(err error) {
		m.logger.Warn("session sync failed", map[string]interface{}{"error": err.Error()})
	}
	return m
}

// SetSyncFailureHandler replaces the default log-only handler for
// BackendSyncFailure notices, e.g. to surface a "completed, but failed to
// save" banner.
func (m *Manager) SetSyncFailureHandler(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn != nil {
		m.onSyncFailure = fn
	}
}

// Start begins a countdown for the chosen duration. The running state and
// full remaining time are visible immediately; the durable record is
// created asynchronously and its failure only produces a sync notice.
// Overlapping starts are rejected, including while a restore is in flight.
func (m *Manager) Start(durationMinutes int) error {
	if durationMinutes <= 0 {
		return apperrors.NewInvalidRequestError("duration must be positive")
	}

	m.mu.Lock()
	if m.restoring || m.status != StatusIdle {
		m.mu.Unlock()
		return apperrors.NewSessionAlreadyActiveError()
	}

	now := m.now()
	m.generation++
	gen := m.generation
	m.status = StatusRunning
	m.recordID = ""
	m.duration = time.Duration(durationMinutes) * time.Minute
	m.endTime = now.Add(m.duration)
	m.pausedAt = time.Time{}
	m.accPause = 0
	m.stopTick = make(chan struct{})
	m.persistLocked()
	startedAt := now
	stop := m.stopTick
	m.mu.Unlock()

	metrics.FocusSessions.WithLabelValues("started").Inc()
	go m.runTicker(stop)

	m.bestEffort("create-session", func(ctx context.Context) error {
		id, err := m.sessions.CreateActive(ctx, m.userID, durationMinutes, startedAt)
		if err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		// The countdown may have been stopped or completed while the
		// create was in flight.
		if m.generation == gen && m.status != StatusIdle {
			m.recordID = id
			m.persistLocked()
		}
		return nil
	})

	return nil
}

// Pause freezes the countdown when the hosting page becomes hidden. No-op
// unless running.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusRunning {
		return
	}
	m.status = StatusPaused
	m.pausedAt = m.now()
	m.persistLocked()
}

// Resume unfreezes the countdown when the page becomes visible again,
// adding the elapsed pause to the accumulator. No-op unless paused.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusPaused {
		return
	}
	m.accPause += m.now().Sub(m.pausedAt)
	m.pausedAt = time.Time{}
	m.status = StatusRunning
	m.persistLocked()
}

// Stop cancels the countdown. Local state is cleared even if the durable
// cancellation later fails; cancellation forfeits the aggregate credit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.status != StatusRunning && m.status != StatusPaused {
		m.mu.Unlock()
		return
	}

	recordID := m.recordID
	m.resetLocked()
	m.mu.Unlock()

	metrics.FocusSessions.WithLabelValues("cancelled").Inc()

	if recordID != "" {
		m.bestEffort("cancel-session", func(ctx context.Context) error {
			return m.sessions.Delete(ctx, recordID)
		})
	}
}

// RestoreOnLoad reconstructs a countdown from the persisted mirror. It is
// expected to run once per load, before any user action. A mirror whose
// pause-adjusted deadline already passed is treated as a completion that
// happened while the page was closed; a mirror whose durable record no
// longer checks out is silently discarded.
func (m *Manager) RestoreOnLoad(ctx context.Context) error {
	m.mu.Lock()
	if m.restoring || m.status != StatusIdle {
		m.mu.Unlock()
		return apperrors.NewSessionAlreadyActiveError()
	}
	m.restoring = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.restoring = false
		m.mu.Unlock()
	}()

	state, err := m.states.Load()
	if err != nil {
		m.logger.Warn("failed to load persisted state", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if state == nil {
		return nil
	}

	now := m.now()
	accPause := time.Duration(state.AccumulatedPausedTime) * time.Millisecond
	// Time spent paused while the page was closed does not burn countdown
	// time: fold it into the accumulator before recomputing the deadline.
	if state.IsPaused && state.PausedAt > 0 {
		accPause += now.Sub(time.UnixMilli(state.PausedAt))
	}
	endTime := time.UnixMilli(state.EndTime)
	adjustedEnd := endTime.Add(accPause)

	if !adjustedEnd.After(now) {
		// Completed while the page was closed: credit retroactively,
		// exactly once. Clearing the mirror first keeps repeated
		// reloads from double-crediting.
		if err := m.states.Clear(); err != nil {
			m.logger.Warn("failed to clear persisted state", map[string]interface{}{"error": err.Error()})
		}
		m.mu.Lock()
		m.todaySessions++
		m.mu.Unlock()
		metrics.FocusSessions.WithLabelValues("completed").Inc()
		m.finalizeCompletion(state.SessionID, state.Duration)
		return nil
	}

	active := false
	if state.SessionID != "" {
		active, err = m.sessions.IsActive(ctx, state.SessionID)
		if err != nil {
			active = false
		}
	}
	if !active {
		inconsistency := apperrors.NewRestoreInconsistencyError("durable record missing, inactive, or expired")
		m.logger.Info("discarding stale persisted session", map[string]interface{}{
			"sessionId": state.SessionID,
			"reason":    inconsistency.Details,
		})
		metrics.FocusSessions.WithLabelValues("discarded").Inc()
		if err := m.states.Clear(); err != nil {
			m.logger.Warn("failed to clear persisted state", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	m.mu.Lock()
	if m.status != StatusIdle {
		m.mu.Unlock()
		return apperrors.NewSessionAlreadyActiveError()
	}
	m.generation++
	m.status = StatusRunning
	m.recordID = state.SessionID
	m.duration = time.Duration(state.Duration) * time.Minute
	m.endTime = endTime
	m.pausedAt = time.Time{}
	m.accPause = accPause
	m.stopTick = make(chan struct{})
	m.persistLocked()
	stop := m.stopTick
	m.mu.Unlock()

	metrics.FocusSessions.WithLabelValues("restored").Inc()
	go m.runTicker(stop)

	// Opportunistic orphan cleanup; failed clients leave records behind.
	m.bestEffort("cleanup-expired", func(ctx context.Context) error {
		return m.sessions.CleanupExpired(ctx, m.userID, m.cfg.CleanupBuffer)
	})

	return nil
}

// CleanupExpiredSessions removes the user's durable records older than
// their duration plus the configured safety buffer.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) error {
	return m.sessions.CleanupExpired(ctx, m.userID, m.cfg.CleanupBuffer)
}

// Remaining returns the pause-adjusted remaining time, frozen while paused.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked()
}

// Status returns the current countdown state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// TodaySessions returns the number of sessions completed since startup.
func (m *Manager) TodaySessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.todaySessions
}

// SnapshotState returns a consistent view for the UI.
func (m *Manager) SnapshotState() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Status:        m.status,
		Remaining:     m.remainingLocked(),
		TodaySessions: m.todaySessions,
	}
}

// runTicker recomputes remaining time until the countdown completes or is
// stopped. Exactly one ticker runs per active session; Start and Stop
// manage the stop channel under the mutex.
func (m *Manager) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.tick() {
				return
			}
		}
	}
}

// tick performs one recomputation. Returns true once the session completed.
func (m *Manager) tick() bool {
	m.mu.Lock()
	if m.status != StatusRunning {
		// Paused or already stopped; the display stays frozen.
		done := m.status == StatusIdle
		m.mu.Unlock()
		return done
	}

	if m.remainingLocked() > 0 {
		m.mu.Unlock()
		return false
	}

	// Completed: the local transition happens regardless of backend
	// availability.
	recordID := m.recordID
	minutes := int(m.duration / time.Minute)
	m.todaySessions++
	m.resetLocked()
	m.mu.Unlock()

	metrics.FocusSessions.WithLabelValues("completed").Inc()
	m.finalizeCompletion(recordID, minutes)
	return true
}

// finalizeCompletion closes the durable record and credits the aggregate
// minutes, best-effort.
func (m *Manager) finalizeCompletion(recordID string, minutes int) {
	m.bestEffort("complete-session", func(ctx context.Context) error {
		if recordID != "" {
			if err := m.sessions.Delete(ctx, recordID); err != nil {
				return err
			}
		}
		return m.profiles.AddFocusMinutes(ctx, m.userID, minutes)
	})
}

// remainingLocked computes max(0, endTime + accumulatedPause - now). While
// paused, "now" is pinned to the pause start so the display stays frozen.
func (m *Manager) remainingLocked() time.Duration {
	if m.status == StatusIdle {
		return 0
	}
	ref := m.now()
	if m.status == StatusPaused {
		ref = m.pausedAt
	}
	remaining := m.endTime.Add(m.accPause).Sub(ref)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// resetLocked clears the in-memory countdown and the persisted mirror, and
// tears down the ticker. Callers hold the mutex.
func (m *Manager) resetLocked() {
	if m.stopTick != nil {
		close(m.stopTick)
		m.stopTick = nil
	}
	m.generation++
	m.status = StatusIdle
	m.recordID = ""
	m.endTime = time.Time{}
	m.duration = 0
	m.pausedAt = time.Time{}
	m.accPause = 0
	if err := m.states.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted state", map[string]interface{}{"error": err.Error()})
	}
}

// persistLocked mirrors the current countdown to the state store. Callers
// hold the mutex. A failed write is logged; the in-memory countdown is
// authoritative.
func (m *Manager) persistLocked() {
	state := &PersistedState{
		SessionID:             m.recordID,
		EndTime:               m.endTime.UnixMilli(),
		Duration:              int(m.duration / time.Minute),
		IsPaused:              m.status == StatusPaused,
		AccumulatedPausedTime: m.accPause.Milliseconds(),
	}
	if m.status == StatusPaused {
		state.PausedAt = m.pausedAt.UnixMilli()
	}
	if err := m.states.Save(state); err != nil {
		m.logger.Warn("failed to persist countdown state", map[string]interface{}{"error": err.Error()})
	}
}

// bestEffort runs a durable write in the background. Errors become
// BackendSyncFailure notices; they never block or roll back local state.
func (m *Manager) bestEffort(op string, fn func(ctx context.Context) error) {
	m.syncWG.Add(1)
	go func() {
		defer m.syncWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SyncTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			metrics.BackendSyncFailures.WithLabelValues(op).Inc()
			m.onSyncFailure(apperrors.NewBackendSyncFailureError(op, err))
		}
	}()
}
