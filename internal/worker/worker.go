package worker

import (
	"context"
	"log"
	"sync"
)

// Job is one unit of background work, typically a classification run for a
// single document.
type Job func(ctx context.Context) error

// Pool runs jobs on a fixed set of goroutines. Submission never blocks a
// request handler; when the queue is full the job is dropped and logged,
// and the queued classification task record stays QUEUED for a later sweep.
type Pool struct {
	jobs chan Job
	wg   sync.WaitGroup

	// mu orders Submit against Shutdown's close of the channel, so a
	// concurrent Submit can never send on a closed channel.
	mu     sync.Mutex
	closed bool
}

func NewPool(size, queueCapacity int) *Pool {
	p := &Pool{
		jobs: make(chan Job, queueCapacity),
	}

	for range size {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		if err := job(context.Background()); err != nil {
			log.Printf("background job failed: %v", err)
		}
	}
}

// Submit enqueues a job, dropping it when the pool is shutting down or full.
func (p *Pool) Submit(j Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		log.Println("job submitted during shutdown, dropping")
		return false
	}
	select {
	case p.jobs <- j:
		return true
	default:
		log.Println("job queue full, dropping job")
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight work to finish
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
