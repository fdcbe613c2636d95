package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsEnqueuedRefreshes(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	done := make(chan struct{}, 3)

	pool := NewRefreshPool(func(_ context.Context, address string) {
		mu.Lock()
		seen[address]++
		mu.Unlock()
		done <- struct{}{}
	}, 2, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	require.True(t, pool.Enqueue("addr1"))
	require.True(t, pool.Enqueue("addr2"))
	require.True(t, pool.Enqueue("addr1"))

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("refresh did not run")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, seen["addr1"])
	assert.Equal(t, 1, seen["addr2"])
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewRefreshPool(func(context.Context, string) { <-block }, 1, 1)
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	// First fills the worker, second fills the queue
	require.True(t, pool.Enqueue("addr1"))
	require.Eventually(t, func() bool {
		return pool.Enqueue("addr2")
	}, time.Second, 5*time.Millisecond)

	assert.False(t, pool.Enqueue("addr3"))
	assert.Equal(t, 1, pool.QueueDepth())
}

func TestPoolSurvivesPanickingRefresh(t *testing.T) {
	done := make(chan string, 2)
	pool := NewRefreshPool(func(_ context.Context, address string) {
		if address == "bad" {
			panic("boom")
		}
		done <- address
	}, 1, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	require.True(t, pool.Enqueue("bad"))
	require.True(t, pool.Enqueue("good"))

	select {
	case addr := <-done:
		assert.Equal(t, "good", addr)
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	pool := NewRefreshPool(func(context.Context, string) {}, 2, 8)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		pool.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop")
	}
}
