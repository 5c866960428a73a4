package results

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/vertex-ai-benchmarker/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregate struct{ line string }

func (f fakeAggregate) String() string { return f.line }

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

type fakeBlobSink struct {
	objects map[string]*bytes.Buffer
}

func newFakeBlobSink() *fakeBlobSink { return &fakeBlobSink{objects: map[string]*bytes.Buffer{}} }

func (f *fakeBlobSink) OpenWriter(ctx context.Context, objectName string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	f.objects[objectName] = buf
	return nopCloser{buf}, nil
}

func (f *fakeBlobSink) EnsureBucket(ctx context.Context) error { return nil }

type loadCall struct {
	table       string
	sourceURI   string
	disposition WriteDisposition
}

type fakeWarehouseSink struct {
	loads []loadCall
}

func (f *fakeWarehouseSink) EnsureDataset(ctx context.Context, name string) error { return nil }

func (f *fakeWarehouseSink) Load(ctx context.Context, dataset, table, sourceURI string, disposition WriteDisposition) error {
	f.loads = append(f.loads, loadCall{table: table, sourceURI: sourceURI, disposition: disposition})
	return nil
}

func syntheticResults(n int) []sample.Result {
	out := make([]sample.Result, n)
	for i := range out {
		out[i] = sample.Result{StartTime: time.Unix(0, 0), Latency: time.Duration(i+1) * time.Millisecond}
	}
	return out
}

func TestWriter_ConsoleOnly_PrintsAggregateAndSkipsSinks(t *testing.T) {
	var console bytes.Buffer
	w := NewWriter(Config{}, nil, nil, &console)

	err := w.Flush(context.Background(), Identity{FormattedTimestamp: "2026-08-06", UUID: "u1"},
		fakeAggregate{"Min: 1ms\n"}, 10, syntheticResults(3))
	require.NoError(t, err)
	assert.Equal(t, "Min: 1ms\n", console.String())
}

func TestWriter_Rotation_MultipleBlobsWithTruncateThenAppend(t *testing.T) {
	var console bytes.Buffer
	blobs := newFakeBlobSink()
	warehouse := &fakeWarehouseSink{}
	w := NewWriter(Config{GCSOutputPath: "gs://bucket/root", ByteBudget: 80}, blobs, warehouse, &console)

	results := syntheticResults(50)
	identity := Identity{FormattedTimestamp: "2026-08-06", UUID: "u1"}
	err := w.Flush(context.Background(), identity, fakeAggregate{"agg\n"}, 10, results)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(warehouse.loads), 2)
	assert.Equal(t, Truncate, warehouse.loads[0].disposition)
	for _, l := range warehouse.loads[1:] {
		assert.Equal(t, Append, l.disposition)
	}

	totalRows := 0
	for name, buf := range blobs.objects {
		if !strings.Contains(name, "detailed_results_") {
			continue
		}
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		totalRows += len(lines) - 1 // minus header
		assert.LessOrEqual(t, buf.Len(), 80)
	}
	assert.Equal(t, len(results), totalRows)
}

func TestFormatDuration_ZeroPadded(t *testing.T) {
	d := 1*time.Hour + 2*time.Minute + 3*time.Second + 4500*time.Microsecond
	assert.Equal(t, "01:02:03.004500", formatDuration(d))
}
