package results

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
	"github.com/google/vertex-ai-benchmarker/internal/sample"
)

// defaultByteBudget is the rotation threshold used when Config.ByteBudget
// is unset, matching the ">= 1 GiB" guidance for what was originally a
// hosted-runtime string-length ceiling.
const defaultByteBudget = 2_000_000_000

const csvHeader = "StartTime,Duration\n"

// timestampLayout and the duration formatter below render detailed CSV
// rows in the exact yyyy-MM-dd HH:mm:ss.SSSSSS / HH:mm:ss.SSSSSS pair the
// original produced.
const timestampLayout = "2006-01-02 15:04:05.000000"

// Identity and Aggregate are the minimal shapes writer.go needs from the
// manager package, kept narrow here so this package does not import the
// manager package.
type Identity struct {
	FormattedTimestamp string
	UUID               string
}

type Aggregate interface {
	String() string
}

// Config configures one Writer.
type Config struct {
	// GCSOutputPath is the root gs:// location for blob outputs. Empty
	// means console-only: the aggregate line still prints, but no blob
	// or warehouse artifacts are written.
	GCSOutputPath string
	// BigQueryDataset, if empty, is derived from the targetQPS passed to
	// Flush and the run UUID.
	BigQueryDataset string
	// ByteBudget overrides the detailed-CSV rotation threshold.
	ByteBudget int64
}

func (c Config) byteBudget() int64 {
	if c.ByteBudget > 0 {
		return c.ByteBudget
	}
	return defaultByteBudget
}

// Writer flushes one run's aggregate line, detailed CSV blobs, and
// warehouse table rows.
type Writer struct {
	cfg       Config
	blobSink  BlobSink
	warehouse WarehouseSink
	console   io.Writer
}

// NewWriter builds a Writer. blobSink/warehouse may be nil when
// cfg.GCSOutputPath is empty (console-only mode).
func NewWriter(cfg Config, blobSink BlobSink, warehouse WarehouseSink, console io.Writer) *Writer {
	return &Writer{cfg: cfg, blobSink: blobSink, warehouse: warehouse, console: console}
}

// Flush prints the aggregate line to the console and, if a GCS output
// path is configured, writes the aggregate object, rotates the detailed
// CSV blobs, and loads each into the warehouse table.
func (w *Writer) Flush(ctx context.Context, identity Identity, agg Aggregate, targetQPS int, results []sample.Result) error {
	PrintAggregate(w.console, agg)

	if w.cfg.GCSOutputPath == "" {
		return nil
	}
	if w.blobSink == nil || w.warehouse == nil {
		return bench.New(bench.Internal, "GCS output path configured without blob/warehouse sinks")
	}

	root := gcspath.Normalize(w.cfg.GCSOutputPath)
	_, prefix, err := gcspath.Parse(root)
	if err != nil {
		return err
	}
	if err := w.blobSink.EnsureBucket(ctx); err != nil {
		return err
	}

	datasetName := w.cfg.BigQueryDataset
	if datasetName == "" {
		datasetName = fmt.Sprintf("vertex_ai_benchmarker_results_%d_%s", targetQPS, identity.UUID)
	}
	if err := w.warehouse.EnsureDataset(ctx, datasetName); err != nil {
		return err
	}

	aggName := fmt.Sprintf("aggregated_results_%s_%s.txt", identity.FormattedTimestamp, identity.UUID)
	if err := w.writeObject(ctx, prefix+aggName, []byte(agg.String())); err != nil {
		return err
	}

	table := fmt.Sprintf("loadtest_result_table_%s_%s", identity.FormattedTimestamp, identity.UUID)
	return w.flushDetailed(ctx, root, prefix, identity, datasetName, table, results)
}

func (w *Writer) writeObject(ctx context.Context, objectName string, content []byte) error {
	writer, err := w.blobSink.OpenWriter(ctx, objectName)
	if err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "opening blob writer", err)
	}
	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return bench.Wrap(bench.ExternalUnavailable, "writing blob content", err)
	}
	if err := writer.Close(); err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "closing blob writer", err)
	}
	return nil
}

// flushDetailed rotates results into one or more CSV blobs of at most
// cfg.byteBudget() bytes each, loading every completed blob into the
// warehouse table before moving to the next: the first load uses
// TRUNCATE, every subsequent one APPEND.
func (w *Writer) flushDetailed(ctx context.Context, root, prefix string, identity Identity, dataset, table string, results []sample.Result) error {
	n := 1
	buf := bytes.NewBufferString(csvHeader)
	budget := w.cfg.byteBudget()

	rotate := func() error {
		name := fmt.Sprintf("detailed_results_%s_%s_%d.csv", identity.FormattedTimestamp, identity.UUID, n)
		sourceURI := root + name
		if err := w.writeObject(ctx, prefix+name, buf.Bytes()); err != nil {
			return err
		}

		disposition := Append
		if n == 1 {
			disposition = Truncate
		}
		if err := ensureGCSSourceURI(sourceURI); err != nil {
			return err
		}
		if err := w.warehouse.Load(ctx, dataset, table, sourceURI, disposition); err != nil {
			return err
		}

		n++
		buf.Reset()
		buf.WriteString(csvHeader)
		return nil
	}

	for _, r := range results {
		row := formatRow(r)
		if buf.Len() > len(csvHeader) && int64(buf.Len()+len(row)) > budget {
			if err := rotate(); err != nil {
				return err
			}
		}
		buf.WriteString(row)
	}
	if buf.Len() > len(csvHeader) {
		if err := rotate(); err != nil {
			return err
		}
	}
	return nil
}

func formatRow(r sample.Result) string {
	return fmt.Sprintf("%s,%s\n", formatTimestamp(r.StartTime), formatDuration(r.Latency))
}

func formatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(timestampLayout)
}

// formatDuration renders a duration as zero-padded HH:mm:ss.SSSSSS,
// matching the original's duration column format exactly.
func formatDuration(d time.Duration) string {
	totalUs := d.Microseconds()
	us := totalUs % 1_000_000
	totalSec := totalUs / 1_000_000
	s := totalSec % 60
	totalMin := totalSec / 60
	m := totalMin % 60
	h := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, us)
}
