package inventory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBucketKey(t *testing.T) {
	k, err := NewBucketKey("sail-1", "BALCONY")
	require.NoError(t, err)
	assert.Equal(t, "balcony", k.Bucket)

	_, err = NewBucketKey("", "balcony")
	assert.ErrorIs(t, err, ErrEmptyBucketKey)
	_, err = NewBucketKey("sail-1", "  ")
	assert.ErrorIs(t, err, ErrEmptyBucketKey)
}

func TestAllocateHoldSoldOut(t *testing.T) {
	l := NewLedger()
	key := BucketKey{SailingID: "s1", Bucket: "suite"}

	for i := 0; i < 3; i++ {
		require.NoError(t, l.AllocateHold(key, 3))
	}
	err := l.AllocateHold(key, 3)
	assert.ErrorIs(t, err, ErrSoldOut)

	c := l.Counts(key)
	assert.Equal(t, 3, c.Held)
	assert.Equal(t, 0, c.Confirmed)
	assert.Equal(t, 3, c.Capacity)
}

func TestConcurrentAllocateNeverOversells(t *testing.T) {
	const capacity = 7
	const attempts = 100

	l := NewLedger()
	key := BucketKey{SailingID: "s1", Bucket: "inside"}

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.AllocateHold(key, capacity)
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrSoldOut)
		}
	}
	assert.Equal(t, capacity, ok)

	c := l.Counts(key)
	assert.Equal(t, capacity, c.Held)
	assert.LessOrEqual(t, c.Held+c.Confirmed, c.Capacity)
}

func TestCommitHoldMovesUnit(t *testing.T) {
	l := NewLedger()
	key := BucketKey{SailingID: "s1", Bucket: "oceanview"}
	require.NoError(t, l.AllocateHold(key, 5))

	l.CommitHold(key)
	c := l.Counts(key)
	assert.Equal(t, 0, c.Held)
	assert.Equal(t, 1, c.Confirmed)
	assert.Equal(t, 5, c.Capacity)
}

func TestReleaseHoldFloorsAtZero(t *testing.T) {
	l := NewLedger()
	key := BucketKey{SailingID: "s1", Bucket: "balcony"}

	// Releasing an untouched bucket must not create negative counts.
	l.ReleaseHold(key)
	c := l.Counts(key)
	assert.Equal(t, 0, c.Held)

	require.NoError(t, l.AllocateHold(key, 2))
	l.ReleaseHold(key)
	l.ReleaseHold(key)
	c = l.Counts(key)
	assert.Equal(t, 0, c.Held)
	assert.Equal(t, 0, c.Confirmed)
}

func TestSetCapacityClampsCounts(t *testing.T) {
	l := NewLedger()
	key := BucketKey{SailingID: "s1", Bucket: "suite"}
	for i := 0; i < 4; i++ {
		require.NoError(t, l.AllocateHold(key, 10))
	}
	l.CommitHold(key)
	l.CommitHold(key) // held=2 confirmed=2

	require.NoError(t, l.SetCapacity(key, 3))
	c := l.Counts(key)
	assert.Equal(t, 3, c.Capacity)
	assert.LessOrEqual(t, c.Held+c.Confirmed, c.Capacity)
	// Holds shrink before confirmed seats.
	assert.Equal(t, 2, c.Confirmed)
	assert.Equal(t, 1, c.Held)

	err := l.SetCapacity(key, -1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}
