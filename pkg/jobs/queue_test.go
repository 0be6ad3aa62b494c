package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRetriesFailedJob(t *testing.T) {
	attempts := make(chan int, 4)
	handler := func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt == 0 {
			return fmt.Errorf("render failed")
		}
		return nil
	}

	q := NewQueue("reports", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "risk_summary"}))

	require.Equal(t, 0, waitForAttempt(t, attempts))
	require.Equal(t, 1, waitForAttempt(t, attempts))
}

func TestQueueStopsRetryingAfterMaxAttempts(t *testing.T) {
	var calls int32
	handler := func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return fmt.Errorf("render failed")
	}

	q := NewQueue("reports", handler, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "interventions"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 3 // first run plus two retries
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "job-1"}))
}

func waitForAttempt(t *testing.T, attempts <-chan int) int {
	t.Helper()
	select {
	case attempt := <-attempts:
		return attempt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job attempt")
		return -1
	}
}
