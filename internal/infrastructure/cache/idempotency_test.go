package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotency_AcquireThenReplay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	replay, err := s.Acquire(ctx, "t1", "k1", "u1", "POST /adjustments/:id/apply", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	require.NoError(t, s.Complete(ctx, "t1", "k1", 200, "application/json", []byte(`{"ok":true}`)))

	replay, err = s.Acquire(ctx, "t1", "k1", "u1", "POST /adjustments/:id/apply", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 200, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(replay.Body))
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)

	_, err = s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
}

func TestIdempotency_Mismatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)

	_, err = s.Acquire(ctx, "t1", "k1", "u1", "op", "other-body")
	require.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	assert.Equal(t, 422, apperror.GetHTTPStatus(err))
}

func TestIdempotency_ScopesAreIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)
	replay, err := s.Acquire(ctx, "t2", "k1", "u1", "op", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotency_StalePendingIsReclaimed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	start := time.Now().UTC()
	s.now = func() time.Time { return start }

	_, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	replay, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotency_FailReplaysAndReleaseForgets(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, "t1", "k1", 422, "application/json", []byte(`{"code":"INSUFFICIENT_STOCK"}`)))

	replay, err := s.Acquire(ctx, "t1", "k1", "u1", "op", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 422, replay.StatusCode)
	assert.Greater(t, mr.TTL(redisKey("t1", "k1")), time.Duration(0))

	require.NoError(t, s.Release(ctx, "t1", "k1"))
	assert.False(t, mr.Exists(redisKey("t1", "k1")))
}
