package focus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

// PostgresSessionRepository stores focus-session records in the
// focus_sessions table.
type PostgresSessionRepository struct {
	db         *sql.DB
	skewBuffer time.Duration
	logger     logger.Logger
	now        func() time.Time
}

func NewPostgresSessionRepository(db *sql.DB, skewBuffer time.Duration, log logger.Logger) *PostgresSessionRepository {
	if skewBuffer <= 0 {
		skewBuffer = 5 * time.Second
	}
	return &PostgresSessionRepository{
		db:         db,
		skewBuffer: skewBuffer,
		logger:     log.WithFields(map[string]interface{}{"repository": "focus_sessions"}),
		now:        time.Now,
	}
}

// CreateActive enforces the one-active-record-per-user invariant: prior
// active records are removed before the insert. A failed cleanup is logged
// and the insert proceeds anyway, matching last-writer-wins semantics.
func (r *PostgresSessionRepository) CreateActive(ctx context.Context, userID string, durationMinutes int, startedAt time.Time) (string, error) {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM focus_sessions WHERE user_id = $1 AND is_active = TRUE`,
		userID,
	); err != nil {
		r.logger.Warn("failed to cleanup old sessions", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO focus_sessions (id, user_id, duration_minutes, started_at, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)`,
		id, userID, durationMinutes, startedAt,
	); err != nil {
		return "", fmt.Errorf("insert focus session: %w", err)
	}

	return id, nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM focus_sessions WHERE id = $1`,
		sessionID,
	); err != nil {
		return fmt.Errorf("delete focus session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteActiveForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM focus_sessions WHERE user_id = $1 AND is_active = TRUE`,
		userID,
	); err != nil {
		return fmt.Errorf("delete active focus sessions: %w", err)
	}
	return nil
}

// IsActive reports whether the record exists, is flagged active, and has
// not outlived its stored duration (with the skew buffer). A missing record
// is not an error; it simply means the session was already closed.
func (r *PostgresSessionRepository) IsActive(ctx context.Context, sessionID string) (bool, error) {
	var (
		isActive        bool
		startedAt       time.Time
		durationMinutes int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT is_active, started_at, duration_minutes FROM focus_sessions WHERE id = $1`,
		sessionID,
	).Scan(&isActive, &startedAt, &durationMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query focus session: %w", err)
	}

	if !isActive {
		return false, nil
	}

	deadline := startedAt.Add(time.Duration(durationMinutes) * time.Minute).Add(r.skewBuffer)
	return r.now().Before(deadline), nil
}

func (r *PostgresSessionRepository) CleanupExpired(ctx context.Context, userID string, buffer time.Duration) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM focus_sessions
		 WHERE user_id = $1
		   AND started_at + make_interval(mins => duration_minutes) + make_interval(secs => $2) < NOW()`,
		userID, buffer.Seconds(),
	); err != nil {
		return fmt.Errorf("cleanup expired focus sessions: %w", err)
	}
	return nil
}

// PostgresProfileRepository mutates per-user aggregates on the profiles
// table.
type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// AddFocusMinutes credits completed minutes to the running total. The
// increment happens in the database so concurrent completions from other
// devices cannot lose updates.
func (r *PostgresProfileRepository) AddFocusMinutes(ctx context.Context, userID string, minutes int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET total_focus_minutes = COALESCE(total_focus_minutes, 0) + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		minutes, userID,
	)
	if err != nil {
		return fmt.Errorf("add focus minutes: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("add focus minutes: no profile for user %s", userID)
	}
	return nil
}
