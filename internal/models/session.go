package models

import (
	"context"
	"time"
)

// FocusSession represents one in-progress or completed timed focus interval.
// At most one active record exists per user at any time.
type FocusSession struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"userId" db:"user_id"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes"`
	StartedAt       time.Time  `json:"startedAt" db:"started_at"`
	IsActive        bool       `json:"isActive" db:"is_active"`
	EndedAt         *time.Time `json:"endedAt,omitempty" db:"ended_at"`
}

// Deadline returns the wall-clock time at which the session runs out.
func (s *FocusSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// IsExpired checks whether the session has outlived its duration, with a
// skew buffer for clock drift between client and database.
func (s *FocusSession) IsExpired(now time.Time, skewBuffer time.Duration) bool {
	return now.After(s.Deadline().Add(skewBuffer))
}

// SessionRepository defines durable focus-session data access.
type SessionRepository interface {
	// CreateActive deletes any active records for the user, then inserts a
	// new active record and returns its id.
	CreateActive(ctx context.Context, userID string, durationMinutes int, startedAt time.Time) (string, error)
	// Delete removes a record by id (used for both completion and cancel).
	Delete(ctx context.Context, sessionID string) error
	// DeleteActiveForUser removes all active records for a user.
	DeleteActiveForUser(ctx context.Context, userID string) error
	// IsActive reports whether a record exists, is flagged active, and has
	// not outlived its stored duration.
	IsActive(ctx context.Context, sessionID string) (bool, error)
	// CleanupExpired removes the user's records older than their duration
	// plus a safety buffer.
	CleanupExpired(ctx context.Context, userID string, buffer time.Duration) error
}

// ProfileRepository defines access to per-user aggregates.
type ProfileRepository interface {
	// AddFocusMinutes credits minutes to the user's running total. Called
	// only on normal completion, never on cancellation.
	AddFocusMinutes(ctx context.Context, userID string, minutes int) error
}
