// Package stats exposes the lobby's read-only counters: how many users are
// currently focusing and how many have registered.
package stats

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/LianruiSun/JobboCat/internal/common/errors"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

// Service answers aggregate count queries from the relational store.
type Service struct {
	db     *sql.DB
	logger logger.Logger
}

func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "stats"}),
	}
}

// CurrentlyFocusing counts active focus sessions that have not outlived
// their own duration. Orphans past their deadline are excluded even before
// cleanup removes them.
func (s *Service) CurrentlyFocusing(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM focus_sessions
		 WHERE is_active = TRUE
		   AND started_at + make_interval(mins => duration_minutes) > NOW()`,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.NewDatabaseQueryFailedError(err)
	}
	return count, nil
}

// TotalUsers counts registered profiles.
func (s *Service) TotalUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles`,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.NewDatabaseQueryFailedError(err)
	}
	return count, nil
}

// QueryTimeout bounds each stats query.
const QueryTimeout = 5 * time.Second
