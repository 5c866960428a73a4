// Package results buffers detailed per-request records, rotates blob
// objects at a size threshold, appends each object to a columnar table,
// and always prints the aggregate summary to stdout.
package results

import (
	"context"
	"io"
)

// WriteDisposition mirrors a warehouse load job's write mode.
type WriteDisposition int

const (
	Truncate WriteDisposition = iota
	Append
)

// BlobSink is the narrow contract the Results Writer needs from an object
// store: open a writer for a named object, and ensure the target bucket
// exists before first use.
type BlobSink interface {
	OpenWriter(ctx context.Context, objectName string) (io.WriteCloser, error)
	EnsureBucket(ctx context.Context) error
}

// WarehouseSink is the narrow contract the Results Writer needs from a
// columnar warehouse: ensure a dataset exists, and synchronously load one
// CSV blob into a table under the given disposition.
type WarehouseSink interface {
	EnsureDataset(ctx context.Context, name string) error
	Load(ctx context.Context, dataset, table, sourceURI string, disposition WriteDisposition) error
}
