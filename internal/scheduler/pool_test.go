package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	counter *atomic.Int32
}

func (c countingTask) Run() {
	c.counter.Add(1)
}

func TestPoolDrainsQueuedTasks(t *testing.T) {
	p := New(2)
	defer p.Close()

	var counter atomic.Int32
	p.Enqueue(countingTask{&counter})
	p.Enqueue(countingTask{&counter})

	assert.Eventually(t, func() bool { return counter.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, p.QueueLen())
}

func TestPoolCloseJoinsAllWorkers(t *testing.T) {
	p := New(3)
	assert.Equal(t, 3, p.Len())
	p.Close()
	assert.False(t, p.running.Load())
}

type blockingTask struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingTask) Run() {
	close(b.started)
	<-b.release
}

// A single-worker pool with one task running and several more still queued
// must run every queued task before Close returns, not drop them once the
// running flag flips.
func TestCloseDrainsQueueBeforeStopping(t *testing.T) {
	p := New(1)

	started := make(chan struct{})
	release := make(chan struct{})
	p.Enqueue(blockingTask{started: started, release: release})
	<-started

	var counter atomic.Int32
	p.Enqueue(countingTask{&counter})
	p.Enqueue(countingTask{&counter})
	p.Enqueue(countingTask{&counter})

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the blocking task finished")
	}
	assert.Equal(t, int32(3), counter.Load(), "all three queued tasks must run before Close stops the pool")
}

type reschedulingTask struct {
	pool    *Pool
	counter *atomic.Int32
	depth   int
}

func (r reschedulingTask) Run() {
	r.counter.Add(1)
	if r.depth > 0 {
		r.pool.Enqueue(reschedulingTask{pool: r.pool, counter: r.counter, depth: r.depth - 1})
	}
}

func TestTaskCanReenqueueItself(t *testing.T) {
	p := New(1)
	defer p.Close()

	var counter atomic.Int32
	p.Enqueue(reschedulingTask{pool: p, counter: &counter, depth: 3})

	assert.Eventually(t, func() bool { return counter.Load() == 4 }, time.Second, 5*time.Millisecond)
}
