// Package scheduler runs a fixed-size worker pool over a FIFO task queue.
// The peer-wire tasks run on it and reschedule themselves through it.
package scheduler

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mistnet/swarmpeer/internal/logger"
)

var log = logger.New("scheduler")

// Task is one unit of work a pool worker runs to completion. A Task that
// wants follow-up work enqueues a new Task itself rather than looping, the
// same self-rescheduling style the peer-wire tasks use.
type Task interface {
	Run()
}

// Pool is a fixed-size worker pool draining a FIFO task queue. The zero
// value is not usable; construct with New.
type Pool struct {
	mu    sync.Mutex
	queue *list.List

	size    int
	running atomic.Bool
	wg      sync.WaitGroup
}

// New starts size workers immediately, idle-polling the queue every 10ms
// when empty.
func New(size int) *Pool {
	p := &Pool{
		queue: list.New(),
		size:  size,
	}
	p.running.Store(true)

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Len reports the number of workers in the pool.
func (p *Pool) Len() int {
	return p.size
}

// QueueLen reports the number of tasks currently waiting to run.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// Enqueue appends a task to the back of the queue. Safe to call from any
// goroutine, including from within a running Task.
func (p *Pool) Enqueue(t Task) {
	p.mu.Lock()
	p.queue.PushBack(t)
	p.mu.Unlock()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log.Debugf("worker %d started", id)
	for p.running.Load() {
		t, ok := p.pop()
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		t.Run()
	}
	log.Debugf("worker %d stopped", id)
}

func (p *Pool) pop() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	front := p.queue.Front()
	if front == nil {
		return nil, false
	}
	p.queue.Remove(front)
	return front.Value.(Task), true
}

// Close waits for the queue to drain, then clears the running flag and
// blocks until every worker has observed it and exited. Tasks enqueued by
// other tasks while the queue still holds work are waited on as well. A
// worker finishes the task it is running before it exits, but a follow-up
// that such a task enqueues after the queue has emptied is not run.
func (p *Pool) Close() {
	for p.QueueLen() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	p.running.Store(false)
	p.wg.Wait()
}
