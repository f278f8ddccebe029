package presence

import (
	"context"
	"time"

	apperrors "github.com/LianruiSun/JobboCat/internal/common/errors"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
	"github.com/LianruiSun/JobboCat/internal/common/metrics"
)

const (
	// DefaultWindow is how long a session may stay silent before it is
	// considered offline.
	DefaultWindow = 120 * time.Second
	// DefaultGrace absorbs clock and network skew when pruning.
	DefaultGrace = 5 * time.Second
	// DefaultHeartbeatInterval is the expected client heartbeat cadence.
	// The window must stay at least twice this value so one missed
	// heartbeat does not flip a session to offline.
	DefaultHeartbeatInterval = 60 * time.Second
)

// Service maintains the sliding window of live sessions. It is stateless
// per call; all state lives in the Store.
type Service struct {
	store  Store
	window time.Duration
	grace  time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewService creates a presence service. Non-positive window or grace fall
// back to the defaults.
func NewService(store Store, window, grace time.Duration, log logger.Logger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Service{
		store:  store,
		window: window,
		grace:  grace,
		logger: log.WithFields(map[string]interface{}{"component": "presence"}),
		now:    time.Now,
	}
}

// Heartbeat records liveness for the calling session and returns the count
// of sessions heartbeated within the window, as of immediately after the
// prune. Under concurrent churn the count is a bounded approximation; each
// store step is atomic but the three steps are not linearized together.
func (s *Service) Heartbeat(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, apperrors.NewInvalidRequestError("sessionId is required")
	}

	now := s.now()

	if err := s.store.Touch(ctx, sessionID, now); err != nil {
		s.logger.Error("heartbeat touch failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return 0, apperrors.NewServiceUnavailableError(err)
	}

	pruned, err := s.store.Prune(ctx, now.Add(-(s.window + s.grace)))
	if err != nil {
		return 0, apperrors.NewServiceUnavailableError(err)
	}
	if pruned > 0 {
		metrics.PrunedEntries.Add(float64(pruned))
		s.logger.Debug("pruned stale sessions", map[string]interface{}{
			"removed": pruned,
		})
	}

	count, err := s.store.Count(ctx, now.Add(-s.window))
	if err != nil {
		return 0, apperrors.NewServiceUnavailableError(err)
	}

	metrics.OnlineSessions.Set(float64(count))
	return count, nil
}

// Window returns the configured offline-detection window.
func (s *Service) Window() time.Duration {
	return s.window
}
