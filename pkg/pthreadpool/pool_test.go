package pthreadpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronousPoolRunsInline(t *testing.T) {
	var ran, signaled bool
	p, err := Init(0, func(id int, fn func(payload any), payload any, signalArg any) int {
		signaled = true
		return 0
	}, nil)
	require.NoError(t, err)

	err = p.AddJob(1, func(payload any) { ran = true }, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, signaled)
	assert.Equal(t, 0, p.QueuedJobs())
}

func TestSingleWorkerDispatchesFIFO(t *testing.T) {
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	const n = 20
	var remaining = n

	p, err := Init(1, func(id int, fn func(payload any), payload any, signalArg any) int {
		mu.Lock()
		order = append(order, id)
		remaining--
		if remaining == 0 {
			close(done)
		}
		mu.Unlock()
		return 0
	}, nil)
	require.NoError(t, err)
	defer p.Destroy()

	for i := 0; i < n; i++ {
		require.NoError(t, p.AddJob(i, func(payload any) {}, nil))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs to complete")
	}

	mu.Lock()
	defer mu.Unlock()
	expect := make([]int, n)
	for i := range expect {
		expect[i] = i
	}
	assert.Equal(t, expect, order)
}

func TestAddJobRejectedAfterStop(t *testing.T) {
	p, err := Init(2, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop()) // idempotent

	err = p.AddJob(1, func(payload any) {}, nil)
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
}

func TestDestroyTwicePanics(t *testing.T) {
	p, err := Init(1, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	require.NoError(t, err)
	require.NoError(t, p.Destroy())

	assert.Panics(t, func() {
		_ = p.Destroy()
	})
}

func TestMaxThreadsBoundaryDoesNotOverspawn(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]struct{}{}
	block := make(chan struct{})
	started := make(chan struct{}, 10)

	p, err := Init(2, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	require.NoError(t, err)
	defer p.Destroy()

	job := func(payload any) {
		mu.Lock()
		seen[payload.(int)] = struct{}{}
		mu.Unlock()
		started <- struct{}{}
		<-block
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, p.AddJob(i, job, i))
	}

	// Only maxThreads(2) jobs can be running concurrently; the rest sit
	// queued until a worker frees up.
	<-started
	<-started
	select {
	case <-started:
		t.Fatal("a third job started concurrently past maxThreads")
	case <-time.After(100 * time.Millisecond):
	}
	close(block)
}

func TestCancelJobRemovesQueuedNotRunning(t *testing.T) {
	block := make(chan struct{})
	completed := make(chan int, 10)

	p, err := Init(1, func(id int, fn func(payload any), payload any, signalArg any) int {
		completed <- id
		return 0
	}, nil)
	require.NoError(t, err)
	defer p.Destroy()

	holdFn := func(payload any) { <-block }
	noop := func(payload any) {}

	require.NoError(t, p.AddJob(0, holdFn, nil)) // occupies the only worker
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.AddJob(1, noop, "x"))
	require.NoError(t, p.AddJob(2, noop, "x"))

	n := p.CancelJob(1, noop, "x")
	assert.Equal(t, 1, n)

	close(block)

	select {
	case id := <-completed:
		assert.Equal(t, 0, id)
	case <-time.After(time.Second):
		t.Fatal("holding job never completed")
	}
	select {
	case id := <-completed:
		assert.Equal(t, 2, id)
	case <-time.After(time.Second):
		t.Fatal("surviving queued job never ran")
	}
}

func TestSignalFuncNonZeroRetiresWorkerAndRestartCheckRecovers(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	ran := make(chan int, 10)

	p, err := Init(1, func(id int, fn func(payload any), payload any, signalArg any) int {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		ran <- id
		if n == 1 {
			return 1 // kill this worker
		}
		return 0
	}, nil)
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.AddJob(1, func(payload any) {}, nil))
	require.NoError(t, p.AddJob(2, func(payload any) {}, nil))

	assert.Equal(t, 1, <-ran)

	// Give the retiring worker's monitor notification time to land, then
	// let an external event loop's RestartCheck do its job.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, p.Drain())
	require.NoError(t, p.RestartCheck())

	select {
	case id := <-ran:
		assert.Equal(t, 2, id)
	case <-time.After(time.Second):
		t.Fatal("RestartCheck never recovered the queued job")
	}
}
