// Package sample runs one 1-second sample window: it submits a fixed list
// of tasks to a bounded worker pool, times each task individually, and
// returns the batch of results to the load manager.
package sample

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/caller"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"golang.org/x/sync/semaphore"
)

// shutdownTimeout is how long Run waits for all submitted tasks to drain
// once every task has been submitted.
const shutdownTimeout = 1 * time.Second

// Result is one timed task outcome: the instant its worker began issuing
// the request, and how long the request took.
type Result struct {
	StartTime time.Time
	Latency   time.Duration
}

// Executor runs one sample's worth of tasks against a bounded pool of size
// P (core == max == P, matching the original fixed-size thread pool).
// Submission is unbounded: every task gets its own goroutine, and the
// semaphore gates execution, not submission, so excess tasks wait for a
// free worker. Waiting tasks acquire a worker in the order their goroutines
// reach the semaphore, which is not guaranteed to be submission order.
type Executor struct {
	sem *semaphore.Weighted
}

// New builds an Executor with a pool of p workers.
func New(p int) *Executor {
	return &Executor{sem: semaphore.NewWeighted(int64(p))}
}

// Run submits requests in order, issues each against c on a worker
// acquired from the pool, and returns every successfully completed
// Result. A task's start instant is recorded after the pool acquire, so
// queuing delay is charged to its latency. Tasks whose Issue call fails
// are logged and dropped — their latency is not recorded.
//
// If not all tasks have drained within shutdownTimeout after the last
// submission, Run cancels the remaining in-flight tasks, returns the
// results collected so far, and reports an ExecutionTimeout error.
func (e *Executor) Run(ctx context.Context, c caller.Caller, requests []corpus.Request) ([]Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(requests))
		wg      sync.WaitGroup
	)

	for _, req := range requests {
		wg.Add(1)
		go func(req corpus.Request) {
			defer wg.Done()
			if err := e.sem.Acquire(runCtx, 1); err != nil {
				return
			}
			defer e.sem.Release(1)

			start := time.Now()
			err := c.Issue(runCtx, req)
			latency := time.Since(start)
			if err != nil {
				log.Printf("sample task failed: %v", err)
				return
			}
			mu.Lock()
			results = append(results, Result{StartTime: start, Latency: latency})
			mu.Unlock()
		}(req)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results, nil
	case <-time.After(shutdownTimeout):
		cancel()
		<-done
		mu.Lock()
		partial := append([]Result(nil), results...)
		mu.Unlock()
		return partial, bench.New(bench.ExecutionTimeout, "sample pool did not drain within shutdown budget")
	}
}
