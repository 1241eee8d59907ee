package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisLocker(client, 5*time.Second), mr
}

func TestWithLockRunsAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t)

	called := false
	err := locker.WithLock(context.Background(), "slot:abc", func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists("lock:slot:abc"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// released, so a second acquisition succeeds
	assert.False(t, mr.Exists("lock:slot:abc"))
	err = locker.WithLock(context.Background(), "slot:abc", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestWithLockContention(t *testing.T) {
	locker, mr := newTestLocker(t)

	require.NoError(t, mr.Set("lock:slot:abc", "someone-else"))

	err := locker.WithLock(context.Background(), "slot:abc", func(ctx context.Context) error {
		t.Fatal("must not run while the lock is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// the foreign holder's token survives the failed attempt
	got, err := mr.Get("lock:slot:abc")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestWithLockPropagatesCallbackError(t *testing.T) {
	locker, mr := newTestLocker(t)

	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), "slot:abc", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// released even on error
	assert.False(t, mr.Exists("lock:slot:abc"))
}

func TestWithLockDoesNotReleaseForeignToken(t *testing.T) {
	locker, mr := newTestLocker(t)

	err := locker.WithLock(context.Background(), "slot:abc", func(ctx context.Context) error {
		// simulate expiry plus takeover by another worker mid-section
		mr.Del("lock:slot:abc")
		require.NoError(t, mr.Set("lock:slot:abc", "new-owner"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get("lock:slot:abc")
	require.NoError(t, err)
	assert.Equal(t, "new-owner", got)
}
