package results

import (
	"context"
	"errors"

	"cloud.google.com/go/bigquery"
	"github.com/google/vertex-ai-benchmarker/internal/bench"
	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
	"google.golang.org/api/googleapi"
)

// BigQueryWarehouseSink is a WarehouseSink backed by BigQuery. Every
// detailed CSV blob is loaded synchronously, matching the original's
// one-load-job-at-a-time sequencing.
type BigQueryWarehouseSink struct {
	client *bigquery.Client
}

// NewBigQueryWarehouseSink builds a WarehouseSink over client.
func NewBigQueryWarehouseSink(client *bigquery.Client) *BigQueryWarehouseSink {
	return &BigQueryWarehouseSink{client: client}
}

var resultSchema = bigquery.Schema{
	{Name: "start_time", Type: bigquery.TimestampFieldType},
	{Name: "latency", Type: bigquery.TimeFieldType},
}

func (s *BigQueryWarehouseSink) EnsureDataset(ctx context.Context, name string) error {
	ds := s.client.Dataset(name)
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != 404 {
		return bench.Wrap(bench.ExternalUnavailable, "checking dataset existence", err)
	}
	if err := ds.Create(ctx, nil); err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "creating output dataset", err)
	}
	return nil
}

func (s *BigQueryWarehouseSink) Load(ctx context.Context, dataset, table, sourceURI string, disposition WriteDisposition) error {
	ref := bigquery.NewGCSReference(sourceURI)
	ref.SourceFormat = bigquery.CSV
	ref.SkipLeadingRows = 1
	ref.Schema = resultSchema

	loader := s.client.Dataset(dataset).Table(table).LoaderFrom(ref)
	if disposition == Truncate {
		loader.WriteDisposition = bigquery.WriteTruncate
	} else {
		loader.WriteDisposition = bigquery.WriteAppend
	}

	job, err := loader.Run(ctx)
	if err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "starting warehouse load job", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return bench.Wrap(bench.ExternalUnavailable, "awaiting warehouse load job", err)
	}
	if status.Err() != nil {
		return bench.Wrap(bench.ExternalUnavailable, "warehouse load job failed", status.Err())
	}
	return nil
}

// ensureGCSSourceURI is a narrow guard used by writer.go before issuing a
// load job: the detailed CSV location must be a valid gs:// URI.
func ensureGCSSourceURI(uri string) error {
	if !gcspath.IsGCS(uri) {
		return bench.Newf(bench.InputMalformed, "warehouse load source must be a gs:// URI, got %q", uri)
	}
	return nil
}
