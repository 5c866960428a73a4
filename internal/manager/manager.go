// Package manager owns the work queue, sampling loop, and aggregate
// statistics for one run: it paces a target QPS against a bounded worker
// pool, one 1-second sample at a time, and hands the measured results to
// a results writer.
package manager

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/caller"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"github.com/google/vertex-ai-benchmarker/internal/livestats"
	"github.com/google/vertex-ai-benchmarker/internal/sample"
)

// Strategy selects how the work queue is derived from the corpus.
type Strategy int

const (
	InOrder Strategy = iota
	Shuffled
)

// drainTimeout is how long Run waits, after the sampling loop ends, for
// samples that were still in flight past their deadline.
const drainTimeout = 10 * time.Second

// sampleWindow is the pacing width of one sample.
const sampleWindow = 1 * time.Second

// progressInterval is how often Run prints a live progress snapshot while
// LiveProgress is enabled.
const progressInterval = 5 * time.Second

// Config configures one run of the Load Manager.
type Config struct {
	TargetQPS           int
	WorkerThreads       int
	Strategy            Strategy
	WarmupSampleCount   int
	MeasuredSampleCount int
	Seed                *int64
	LiveProgress        bool
}

// state is the run's unexported lifecycle position. Transitions are
// strictly forward; CompareAndSwap guards against any concurrent
// interrupt handler double-transitioning the run.
type state int32

const (
	stateInit state = iota
	stateWorkQueueBuilt
	stateWarmup
	stateMeasure
	stateAggregate
	stateFlush
	stateDone
)

// Manager drives one run end to end: work-queue construction, warmup and
// measured sampling phases, aggregate statistics, and (via the caller's
// own Run orchestration) results flushing.
type Manager struct {
	cfg    Config
	caller caller.Caller
	corpus corpus.Corpus

	monitor *livestats.Monitor

	workQueue    []corpus.Request
	index        int
	exceededTime int
	pending      sync.WaitGroup

	state    atomic.Int32
	identity RunIdentity
}

// advance moves the run's state machine forward by one CompareAndSwap, so
// a concurrent interrupt handler racing the main loop can never leave the
// run in two states at once.
func (m *Manager) advance(from, to state) {
	m.state.CompareAndSwap(int32(from), int32(to))
}

// New builds a Manager for the given corpus and caller. cfg.Seed, if
// non-nil, makes a Shuffled strategy's work-queue order deterministic.
func New(cfg Config, c caller.Caller, corp corpus.Corpus) *Manager {
	m := &Manager{cfg: cfg, caller: c, corpus: corp}
	if cfg.LiveProgress {
		m.monitor = livestats.NewMonitor()
	}
	return m
}

// Result is what Run returns: the run's identity, the aggregate
// statistics over the measured phase, the full measured-sample results
// (for the results writer), and the QPS-miss count.
type Result struct {
	Identity     RunIdentity
	Aggregate    Aggregate
	Results      []sample.Result
	ExceededTime int
}

// Run executes the full sampling lifecycle: build the work queue, run
// warmup samples (discarded), run measured samples (kept), and compute
// the aggregate. If ctx is cancelled mid-run, Run short-circuits to the
// aggregate/flush steps using whatever measured results were collected
// so far.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	if m.corpus.Empty() {
		return Result{}, bench.New(bench.InputMalformed, "cannot run against an empty corpus")
	}

	m.identity = NewRunIdentity(time.Now())

	m.buildWorkQueue()
	m.advance(stateInit, stateWorkQueueBuilt)

	m.advance(stateWorkQueueBuilt, stateWarmup)
	m.runSamples(ctx, m.cfg.WarmupSampleCount, false, nil)

	m.advance(stateWarmup, stateMeasure)
	if m.cfg.LiveProgress {
		stopProgress := m.startProgressTicker()
		defer stopProgress()
	}
	measured := make([]sampleOutcome, m.cfg.MeasuredSampleCount)
	m.runSamples(ctx, m.cfg.MeasuredSampleCount, true, measured)

	m.drainPending()
	m.advance(stateMeasure, stateAggregate)

	// measured is only read past this point, after drainPending's
	// WaitGroup.Wait has synchronized with every straggler goroutine that
	// wrote into it, so every sample's batch lands in sample order
	// regardless of which ones missed their deadline.
	var results []sample.Result
	for _, out := range measured {
		if out.err != nil {
			log.Printf("sample pool did not fully drain: %v", out.err)
		}
		results = append(results, out.results...)
	}
	exceeded := m.exceededTime

	aggregate := computeAggregate(results)
	m.advance(stateAggregate, stateFlush)
	m.advance(stateFlush, stateDone)

	return Result{
		Identity:     m.identity,
		Aggregate:    aggregate,
		Results:      results,
		ExceededTime: exceeded,
	}, nil
}

// buildWorkQueue materializes the indexed view of the corpus the sampling
// loop draws from: IN_ORDER copies it verbatim, SHUFFLED applies a seeded
// Fisher-Yates shuffle fixed for the whole run.
func (m *Manager) buildWorkQueue() {
	n := m.corpus.Len()
	q := make([]corpus.Request, n)
	for i := 0; i < n; i++ {
		q[i] = m.corpus.At(i)
	}

	if m.cfg.Strategy == Shuffled {
		var r *rand.Rand
		if m.cfg.Seed != nil {
			r = rand.New(rand.NewSource(*m.cfg.Seed))
		} else {
			r = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		for i := n - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			q[i], q[j] = q[j], q[i]
		}
	}

	m.workQueue = q
}

type sampleOutcome struct {
	results []sample.Result
	err     error
}

// runSamples runs n consecutive 1-second samples. Each sample's tasks are
// submitted to an outer, unbounded goroutine launch so sample N+1 can
// begin even if sample N is still draining past its deadline; the
// manager loop itself blocks only in the sleep-until-deadline step.
//
// outcomes, when non-nil, receives each sample's batch at its own index —
// including stragglers that finish after the next sample has already
// started — so the caller can append batches to the aggregate input in
// sample order once every goroutine this call spawned has finished,
// instead of an on-time sample N+1 racing a still-draining sample N into
// a shared results slice.
func (m *Manager) runSamples(ctx context.Context, n int, keepStats bool, outcomes []sampleOutcome) {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		deadline := start.Add(sampleWindow)
		slice := m.nextSlice()
		m.advanceIndex()

		done := make(chan sampleOutcome, 1)
		go func() {
			exec := sample.New(m.cfg.WorkerThreads)
			res, err := exec.Run(ctx, m.caller, slice)
			done <- sampleOutcome{results: res, err: err}
		}()

		sleepFor := time.Until(deadline)
		if sleepFor > 0 {
			timer := time.NewTimer(sleepFor)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}

		select {
		case out := <-done:
			log.Printf("[Sample %d] Reached target QPS.", i)
			m.recordOutcome(i, out, keepStats, outcomes)
		default:
			m.exceededTime++
			log.Printf("[Sample %d] Unable to reach desired QPS.", i)
			idx := i
			m.pending.Add(1)
			go func() {
				defer m.pending.Done()
				m.recordOutcome(idx, <-done, keepStats, outcomes)
			}()
		}
	}
}

// recordOutcome feeds the live monitor immediately (ordering does not
// matter for a best-effort histogram) and, if outcomes is non-nil, stores
// the batch at its sample index for the caller to merge in order later.
// Each call writes a distinct index, so no lock is needed for the slice
// itself; runSamples's caller only reads outcomes after draining every
// goroutine that could still be writing into it.
func (m *Manager) recordOutcome(i int, out sampleOutcome, keepStats bool, outcomes []sampleOutcome) {
	if keepStats && m.monitor != nil {
		for _, r := range out.results {
			m.monitor.RecordLatency(r.Latency)
		}
	}
	if outcomes != nil {
		outcomes[i] = out
	}
}

// nextSlice returns the targetQPS requests starting at the current
// index, wrapping modularly around the work queue.
func (m *Manager) nextSlice() []corpus.Request {
	n := len(m.workQueue)
	out := make([]corpus.Request, m.cfg.TargetQPS)
	for j := 0; j < m.cfg.TargetQPS; j++ {
		out[j] = m.workQueue[(m.index+j)%n]
	}
	return out
}

func (m *Manager) advanceIndex() {
	m.index = (m.index + m.cfg.TargetQPS) % len(m.workQueue)
}

// drainPending waits up to drainTimeout for any samples that were still
// running past their deadline when the sampling loop moved on.
func (m *Manager) drainPending() {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Printf("drain timeout exceeded: some in-flight samples are still pending")
	}
}

// Progress returns a best-effort latency snapshot for a run still in
// flight, or the empty string if live progress is disabled.
func (m *Manager) Progress() string {
	if m.monitor == nil {
		return ""
	}
	return m.monitor.Snapshot()
}

// startProgressTicker prints m.Progress() on progressInterval until the
// returned stop function is called. It is only started during the measured
// phase, where the monitor is actually being fed.
func (m *Manager) startProgressTicker() func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				log.Println(m.Progress())
			}
		}
	}()
	return func() { close(stop) }
}
