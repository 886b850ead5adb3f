package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CountsWithinWindow(t *testing.T) {
	s := NewMemoryStore()

	for i := int64(1); i <= 3; i++ {
		count, retryAfter, err := s.Incr(context.Background(), "login:ip", 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Greater(t, retryAfter, time.Duration(0))
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	count, _, err := s.Incr(context.Background(), "login:ip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, _ = s.Incr(context.Background(), "login:ip", time.Minute)
	assert.Equal(t, int64(2), count)

	now = now.Add(61 * time.Second)
	count, retryAfter, _ := s.Incr(context.Background(), "login:ip", time.Minute)
	assert.Equal(t, int64(1), count, "elapsed window must restart the count")
	assert.Equal(t, time.Minute, retryAfter)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()

	s.Incr(context.Background(), "login:a", time.Minute)
	s.Incr(context.Background(), "login:a", time.Minute)
	count, _, _ := s.Incr(context.Background(), "login:b", time.Minute)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_PrunesClosedWindows(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	for i := 0; i <= pruneThreshold; i++ {
		_, _, err := s.Incr(context.Background(), fmt.Sprintf("login:%d", i), time.Minute)
		require.NoError(t, err)
	}
	require.Greater(t, len(s.entries), pruneThreshold)

	now = now.Add(10 * time.Minute)
	s.Incr(context.Background(), "login:fresh", time.Minute)
	assert.Less(t, len(s.entries), 10, "stale windows should have been pruned")
}
