package workpool

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker pool closed")

// Pool runs submitted jobs on a fixed number of workers.
type Pool struct {
	jobs      chan func()
	quit      chan struct{}
	size      int
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a pool with the given number of workers (at least one).
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan func()),
		quit: make(chan struct{}),
		size: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			job()
		case <-p.quit:
			return
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit hands job to an idle worker, blocking until one accepts it. It does
// not wait for the job to finish.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	if job == nil {
		return errors.New("submit: nil job")
	}
	select {
	case <-p.quit:
		return ErrClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	}
}

// Close stops accepting jobs and waits for running jobs to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
