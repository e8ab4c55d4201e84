package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	locker := NewMemory()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "meeting-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxInside)
				if n <= old || atomic.CompareAndSwapInt32(&maxInside, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locker.slots)
}

func TestMemory_DistinctKeysDoNotBlock(t *testing.T) {
	locker := NewMemory()
	releaseA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestMemory_ContextCancelled(t *testing.T) {
	locker := NewMemory()
	release, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release()

	again, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestLayered(t *testing.T) {
	local, remote := NewMemory(), NewMemory()
	layered := NewLayered(local, remote)

	release, err := layered.Lock(context.Background(), "m")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = remote.Lock(ctx, "m")
	assert.ErrorIs(t, err, ErrNotAcquired, "remote layer is held")

	release()
	assert.Empty(t, local.slots)
}
