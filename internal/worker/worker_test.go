package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsSubmittedJobs(t *testing.T) {
	pool := NewPool(2, 10)

	var ran atomic.Int32
	for range 5 {
		ok := pool.Submit(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		assert.True(t, ok)
	}

	pool.Shutdown()
	assert.Equal(t, int32(5), ran.Load())
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	pool := NewPool(1, 10)
	pool.Shutdown()

	ok := pool.Submit(func(ctx context.Context) error { return nil })
	assert.False(t, ok)
}

func TestPool_SubmitRacingShutdownDoesNotPanic(t *testing.T) {
	pool := NewPool(2, 4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			pool.Submit(func(ctx context.Context) error { return nil })
		}
	}()

	pool.Shutdown()
	<-done

	// the pool is drained and closed; late submissions are dropped cleanly
	assert.False(t, pool.Submit(func(ctx context.Context) error { return nil }))
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Shutdown()
	pool.Shutdown()
}

func TestPool_DropsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1)

	started := make(chan struct{})
	block := make(chan struct{})
	pool.Submit(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	// the worker is occupied: one job fits the queue, the next is dropped
	first := pool.Submit(func(ctx context.Context) error { return nil })
	second := pool.Submit(func(ctx context.Context) error { return nil })

	assert.True(t, first)
	assert.False(t, second)

	close(block)
	pool.Shutdown()
}
