package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/api"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

func newBucketDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestSharedBucket_BurstThenEmpty(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 10, clock)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.True(t, bucket.TryTake(), "take %d should succeed from a full bucket", i)
	}
	assert.False(t, bucket.TryTake(), "burst exhausted")
}

func TestSharedBucket_RefillsOverTime(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 10, clock)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.True(t, bucket.TryTake())
	}
	require.False(t, bucket.TryTake())

	// 2 tokens/sec: one second buys exactly two more requests
	clock.Advance(1 * time.Second)
	assert.True(t, bucket.TryTake())
	assert.True(t, bucket.TryTake())
	assert.False(t, bucket.TryTake())
}

func TestSharedBucket_RefillCappedAtBurst(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 5, clock)
	require.NoError(t, err)

	clock.Advance(1 * time.Hour)
	for i := 0; i < 5; i++ {
		assert.True(t, bucket.TryTake(), "take %d", i)
	}
	assert.False(t, bucket.TryTake())
}

func TestSharedBucket_Refund(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 1, clock)
	require.NoError(t, err)

	require.True(t, bucket.TryTake())
	require.False(t, bucket.TryTake())

	bucket.Refund()
	assert.True(t, bucket.TryTake())
}

func TestSharedBucket_SharedAcrossInstances(t *testing.T) {
	db := newBucketDB(t)
	clock := shared.NewMockClock(time.Unix(1700000000, 0))

	first, err := api.NewSharedBucket(db, 2.0, 2, clock)
	require.NoError(t, err)
	second, err := api.NewSharedBucket(db, 2.0, 2, clock)
	require.NoError(t, err)

	// Both instances drain the same row
	assert.True(t, first.TryTake())
	assert.True(t, second.TryTake())
	assert.False(t, first.TryTake())
	assert.False(t, second.TryTake())
}

func TestSharedBucket_WaitHint(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 1, clock)
	require.NoError(t, err)

	require.True(t, bucket.TryTake())
	require.False(t, bucket.TryTake())

	// Empty bucket at 2 tokens/sec: next token is half a second out
	assert.Equal(t, 500*time.Millisecond, bucket.WaitHint())
}

func TestScheduler_RunsOnSharedBucket(t *testing.T) {
	clock := shared.NewMockClock(time.Unix(1700000000, 0))
	bucket, err := api.NewSharedBucket(newBucketDB(t), 2.0, 3, clock)
	require.NoError(t, err)

	scheduler := api.NewRequestSchedulerWithSource(bucket)
	scheduler.Start()
	defer scheduler.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.Acquire(context.Background(), api.PriorityNormal))
	}
}
