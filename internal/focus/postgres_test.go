package focus

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

func setupSessionRepo(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresSessionRepository(db, 5*time.Second, logger.NewTestLogger(t))
	return repo, mock
}

func TestSessionRepo_CreateActive_ReplacesExisting(t *testing.T) {
	repo, mock := setupSessionRepo(t)
	startedAt := time.Unix(1_700_000_000, 0)

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM focus_sessions WHERE user_id = $1 AND is_active = TRUE`,
	)).WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO focus_sessions (id, user_id, duration_minutes, started_at, is_active)`,
	)).WithArgs(sqlmock.AnyArg(), "user-1", 25, startedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.CreateActive(context.Background(), "user-1", 25, startedAt)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_CreateActive_InsertProceedsAfterCleanupFailure(t *testing.T) {
	repo, mock := setupSessionRepo(t)
	startedAt := time.Unix(1_700_000_000, 0)

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM focus_sessions WHERE user_id = $1 AND is_active = TRUE`,
	)).WithArgs("user-1").WillReturnError(assert.AnError)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO focus_sessions (id, user_id, duration_minutes, started_at, is_active)`,
	)).WithArgs(sqlmock.AnyArg(), "user-1", 25, startedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.CreateActive(context.Background(), "user-1", 25, startedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_CreateActive_InsertFailure(t *testing.T) {
	repo, mock := setupSessionRepo(t)
	startedAt := time.Unix(1_700_000_000, 0)

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM focus_sessions WHERE user_id = $1 AND is_active = TRUE`,
	)).WithArgs("user-1").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO focus_sessions`,
	)).WillReturnError(assert.AnError)

	_, err := repo.CreateActive(context.Background(), "user-1", 25, startedAt)
	assert.Error(t, err)
}

func TestSessionRepo_Delete(t *testing.T) {
	repo, mock := setupSessionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM focus_sessions WHERE id = $1`,
	)).WithArgs("record-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "record-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_IsActive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		isActive  bool
		startedAt time.Time
		duration  int
		want      bool
	}{
		{
			name:      "active within duration",
			isActive:  true,
			startedAt: now.Add(-10 * time.Minute),
			duration:  25,
			want:      true,
		},
		{
			name:      "flagged inactive",
			isActive:  false,
			startedAt: now.Add(-10 * time.Minute),
			duration:  25,
			want:      false,
		},
		{
			name:      "expired past skew buffer",
			isActive:  true,
			startedAt: now.Add(-31 * time.Minute),
			duration:  30,
			want:      false,
		},
		{
			name:      "just inside skew buffer",
			isActive:  true,
			startedAt: now.Add(-30*time.Minute - 4*time.Second),
			duration:  30,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupSessionRepo(t)
			repo.now = func() time.Time { return now }

			rows := sqlmock.NewRows([]string{"is_active", "started_at", "duration_minutes"}).
				AddRow(tt.isActive, tt.startedAt, tt.duration)
			mock.ExpectQuery(regexp.QuoteMeta(
				`SELECT is_active, started_at, duration_minutes FROM focus_sessions WHERE id = $1`,
			)).WithArgs("record-1").WillReturnRows(rows)

			active, err := repo.IsActive(context.Background(), "record-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, active)
		})
	}
}

func TestSessionRepo_IsActive_MissingRecordIsNotError(t *testing.T) {
	repo, mock := setupSessionRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT is_active, started_at, duration_minutes FROM focus_sessions WHERE id = $1`,
	)).WithArgs("record-gone").WillReturnRows(sqlmock.NewRows([]string{"is_active", "started_at", "duration_minutes"}))

	active, err := repo.IsActive(context.Background(), "record-gone")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSessionRepo_IsActive_QueryFailure(t *testing.T) {
	repo, mock := setupSessionRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT is_active, started_at, duration_minutes FROM focus_sessions WHERE id = $1`,
	)).WithArgs("record-1").WillReturnError(assert.AnError)

	_, err := repo.IsActive(context.Background(), "record-1")
	assert.Error(t, err)
}

func TestSessionRepo_CleanupExpired(t *testing.T) {
	repo, mock := setupSessionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`make_interval(mins => duration_minutes) + make_interval(secs => $2) < NOW()`,
	)).WithArgs("user-1", float64(3600)).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.CleanupExpired(context.Background(), "user-1", time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_AddFocusMinutes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE profiles`,
	)).WithArgs(25, "user-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddFocusMinutes(context.Background(), "user-1", 25))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_AddFocusMinutes_NoProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE profiles`,
	)).WithArgs(25, "user-missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.AddFocusMinutes(context.Background(), "user-missing", 25)
	assert.Error(t, err)
}
