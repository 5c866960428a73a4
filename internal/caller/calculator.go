package caller

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
)

// Sink receives one computed sum per Calculator.Issue call.
type Sink interface {
	Record(sum int)
}

// Calculator is a network-free, deterministic test Caller: it interprets a
// Request's FeatureIDs as two decimal strings ["a", "b"] and records their
// sum on the injected Sink instead of issuing any RPC. It exists to
// exercise the manager's pacing and statistics invariants without a live
// service.
type Calculator struct {
	sink Sink
}

// NewCalculator builds a Calculator recording sums to sink.
func NewCalculator(sink Sink) *Calculator {
	return &Calculator{sink: sink}
}

func (c *Calculator) Issue(ctx context.Context, req corpus.Request) error {
	if len(req.FeatureIDs) != 2 {
		return bench.Newf(bench.InputMalformed, "calculator request requires exactly two feature ids, got %d", len(req.FeatureIDs))
	}
	a, err := strconv.Atoi(req.FeatureIDs[0])
	if err != nil {
		return bench.Wrap(bench.InputMalformed, "calculator feature id is not an integer", err)
	}
	b, err := strconv.Atoi(req.FeatureIDs[1])
	if err != nil {
		return bench.Wrap(bench.InputMalformed, "calculator feature id is not an integer", err)
	}
	c.sink.Record(a + b)
	return nil
}

func (c *Calculator) Close() error { return nil }

// RecordingSink is a concurrency-safe Sink that preserves the order in
// which sums were recorded, for use in manager tests asserting the
// output sequence.
type RecordingSink struct {
	mu   sync.Mutex
	sums []int
}

func (s *RecordingSink) Record(sum int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sums = append(s.sums, sum)
}

// Sums returns the recorded sums in arrival order.
func (s *RecordingSink) Sums() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.sums))
	copy(out, s.sums)
	return out
}
