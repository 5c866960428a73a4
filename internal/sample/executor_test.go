package sample

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	sleep   time.Duration
	failOn  map[string]bool
}

func (f *fakeCaller) Issue(ctx context.Context, req corpus.Request) error {
	if f.sleep > 0 {
		select {
		case <-time.After(f.sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failOn[req.EntityID()] {
		return errors.New("synthetic failure")
	}
	return nil
}

func (f *fakeCaller) Close() error { return nil }

func requestsFor(t *testing.T, ids ...string) []corpus.Request {
	t.Helper()
	var out []corpus.Request
	for _, id := range ids {
		req, err := corpus.NewSingleRequest("fs", "et", id, []string{"f1"})
		require.NoError(t, err)
		out = append(out, req)
	}
	return out
}

func TestExecutor_AllTasksSucceed(t *testing.T) {
	e := New(4)
	reqs := requestsFor(t, "a", "b", "c")

	results, err := e.Run(context.Background(), &fakeCaller{}, reqs)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Latency, time.Duration(0))
	}
}

func TestExecutor_FailedTaskDropped(t *testing.T) {
	e := New(2)
	reqs := requestsFor(t, "a", "b")

	results, err := e.Run(context.Background(), &fakeCaller{failOn: map[string]bool{"a": true}}, reqs)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestExecutor_TimeoutReturnsPartialResultsWithExecutionTimeoutError(t *testing.T) {
	e := New(1)
	reqs := requestsFor(t, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j")

	results, err := e.Run(context.Background(), &fakeCaller{sleep: 200 * time.Millisecond}, reqs)
	require.Error(t, err)
	assert.True(t, bench.Is(err, bench.ExecutionTimeout))
	assert.Less(t, len(results), len(reqs))
}
