package corpus

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
)

// readSource returns the textual content of a template or entity-listing
// input, which may be a local filesystem path or a gs:// blob.
func readSource(ctx context.Context, client *storage.Client, path string) (string, error) {
	if !gcspath.IsGCS(path) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", bench.Wrap(bench.InputMalformed, "reading local input file", err)
		}
		return string(b), nil
	}

	bucket, object, err := gcspath.Parse(path)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", bench.New(bench.Internal, "gs:// input requires a storage client")
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", bench.Wrap(bench.ExternalUnavailable, "opening blob reader", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", bench.Wrap(bench.ExternalUnavailable, "reading blob content", err)
	}
	return string(b), nil
}
