package results

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
)

// GCSBlobSink is a BlobSink backed by Google Cloud Storage.
type GCSBlobSink struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCSBlobSink builds a BlobSink rooted at gs://bucket. projectID is
// used only if the bucket needs to be created.
func NewGCSBlobSink(client *storage.Client, bucket, projectID string) *GCSBlobSink {
	return &GCSBlobSink{client: client, bucket: bucket, projectID: projectID}
}

func (s *GCSBlobSink) OpenWriter(ctx context.Context, objectName string) (io.WriteCloser, error) {
	return s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx), nil
}

func (s *GCSBlobSink) EnsureBucket(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return bench.Wrap(bench.ExternalUnavailable, "checking bucket existence", err)
	}
	if err := s.client.Bucket(s.bucket).Create(ctx, s.projectID, nil); err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "creating output bucket", err)
	}
	return nil
}
