package presence

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LianruiSun/JobboCat/internal/common/database"
	apperrors "github.com/LianruiSun/JobboCat/internal/common/errors"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
)

func newTestService(t *testing.T, store Store) *Service {
	return NewService(store, DefaultWindow, DefaultGrace, logger.NewTestLogger(t))
}

func TestService_Heartbeat_RejectsEmptySessionID(t *testing.T) {
	svc := newTestService(t, NewLocalStore())

	_, err := svc.Heartbeat(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestService_Heartbeat_CountsCallingSession(t *testing.T) {
	svc := newTestService(t, NewLocalStore())

	count, err := svc.Heartbeat(context.Background(), "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_Heartbeat_Idempotence(t *testing.T) {
	svc := newTestService(t, NewLocalStore())
	ctx := context.Background()

	first, err := svc.Heartbeat(ctx, "session-a")
	require.NoError(t, err)

	second, err := svc.Heartbeat(ctx, "session-a")
	require.NoError(t, err)

	// Two quick heartbeats for the same session count once.
	assert.Equal(t, first, second)
}

func TestService_Heartbeat_SlidingWindow(t *testing.T) {
	store := NewLocalStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	now := t0
	svc.now = func() time.Time { return now }

	count, err := svc.Heartbeat(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	now = t0.Add(30 * time.Second)
	count, err = svc.Heartbeat(ctx, "session-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// t=130: A has been silent for more than the window; B's heartbeat
	// prunes it.
	now = t0.Add(130 * time.Second)
	count, err = svc.Heartbeat(ctx, "session-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_Heartbeat_StaleEntryExcludedBeforePrune(t *testing.T) {
	store := NewLocalStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	now := t0
	svc.now = func() time.Time { return now }

	_, err := svc.Heartbeat(ctx, "old-session")
	require.NoError(t, err)

	// Just inside the grace period the entry survives the prune but is
	// already outside the counting window.
	now = t0.Add(123 * time.Second)
	count, err := svc.Heartbeat(ctx, "new-session")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_Heartbeat_StoreFailureIsServiceUnavailable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(&database.RedisClient{Client: client}, "presence:online")
	svc := newTestService(t, store)

	t0 := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return t0 }

	mock.ExpectZAdd("presence:online", redis.Z{
		Score:  float64(t0.Unix()),
		Member: "session-a",
	}).SetErr(assert.AnError)

	_, err := svc.Heartbeat(context.Background(), "session-a")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable))
}

func TestService_DefaultsApplied(t *testing.T) {
	svc := NewService(NewLocalStore(), 0, 0, logger.NewNoOpLogger())
	assert.Equal(t, DefaultWindow, svc.Window())
	assert.Equal(t, DefaultGrace, svc.grace)
}
