package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catchup-feed/internal/infra/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_PerHostLimitNeverExceeded(t *testing.T) {
	const perHostLimit = 2
	const concurrentTasks = 20

	s := scheduler.New(8, perHostLimit).WithHostRate(1e6, 1e6)

	var inFlight int32
	var maxObserved int32
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < concurrentTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Run(context.Background(), "same.example", nil, 0, func(ctx context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				mu.Lock()
				if n > maxObserved {
					maxObserved = n
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(maxObserved), perHostLimit)
}

func TestScheduler_HostRateLimitPacesRequests(t *testing.T) {
	s := scheduler.New(4, 4).WithHostRate(10, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		err := s.Run(context.Background(), "paced.example", nil, 0, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestScheduler_SkipsOnExpiredDeadline(t *testing.T) {
	s := scheduler.New(4, 2)
	deadline := scheduler.NewDeadline(-1 * time.Second)

	ran := false
	err := s.Run(context.Background(), "h.example", deadline, 5*time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.ErrorIs(t, err, scheduler.ErrSkipDeadline)
	assert.False(t, ran)
}

func TestScheduler_DifferentHostsDoNotShareCapacity(t *testing.T) {
	s := scheduler.New(4, 1).WithHostRate(1e6, 1e6)

	var aRunning, bRunning int32
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.Run(context.Background(), "a.example", nil, 0, func(ctx context.Context) error {
			atomic.AddInt32(&aRunning, 1)
			time.Sleep(20 * time.Millisecond)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		_ = s.Run(context.Background(), "b.example", nil, 0, func(ctx context.Context) error {
			atomic.AddInt32(&bRunning, 1)
			time.Sleep(20 * time.Millisecond)
			return nil
		})
	}()
	wg.Wait()

	assert.Equal(t, int32(1), aRunning)
	assert.Equal(t, int32(1), bRunning)
}
