package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/LianruiSun/JobboCat/internal/common/database"
)

// DefaultKey is the sorted-set key holding online sessions.
const DefaultKey = "presence:online"

// RedisStore keeps presence entries in a Redis sorted set keyed by
// last-seen timestamp score.
type RedisStore struct {
	redis *database.RedisClient
	key   string
}

// NewRedisStore creates a Redis-backed presence store. An empty key falls
// back to DefaultKey.
func NewRedisStore(redis *database.RedisClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{redis: redis, key: key}
}

func (s *RedisStore) Touch(ctx context.Context, sessionID string, now time.Time) error {
	return s.redis.ZAddMember(ctx, s.key, float64(now.Unix()), sessionID)
}

func (s *RedisStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	max := strconv.FormatInt(cutoff.Unix(), 10)
	return s.redis.ZRemRangeByScore(ctx, s.key, "0", max)
}

func (s *RedisStore) Count(ctx context.Context, since time.Time) (int64, error) {
	min := strconv.FormatInt(since.Unix(), 10)
	return s.redis.ZCount(ctx, s.key, min, "+inf")
}
