package main

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/google/vertex-ai-benchmarker/internal/caller"
	"github.com/google/vertex-ai-benchmarker/internal/corpus"
	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
	"github.com/google/vertex-ai-benchmarker/internal/manager"
	"github.com/google/vertex-ai-benchmarker/internal/results"
)

var cfgFile string

var (
	targetQPS        int
	numThreads       int
	numSamples       int
	numWarmupSamples int
	sampleStrategy   string

	projectID string
	region    string

	gcsOutputPath            string
	featureQueryFile         string
	entityFile               string
	entityQuery              string
	bigqueryOutputDataset    string
	detailedResultByteBudget int64

	apiVersion       string
	endpointOverride string
	randomSeed       int64
	hasRandomSeed    bool

	liveProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "vertex-ai-benchmarker",
	Short: "Closed-loop load generator for Vertex AI Feature Store online serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(cmd.Context())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vertex-ai-benchmarker.yaml)")

	rootCmd.Flags().IntVar(&targetQPS, "target-qps", 10, "tasks per 1-second sample")
	rootCmd.Flags().IntVar(&numThreads, "num-threads", 4, "worker pool size per sample")
	rootCmd.Flags().IntVar(&numSamples, "num-samples", 60, "measured samples")
	rootCmd.Flags().IntVar(&numWarmupSamples, "num-warmup-samples", 5, "warmup samples, stats discarded")
	rootCmd.Flags().StringVar(&sampleStrategy, "sample-strategy", "in_order", "in_order or shuffled")

	rootCmd.Flags().StringVar(&projectID, "project-id", "", "GCP project id")
	rootCmd.Flags().StringVar(&region, "region", "", "GCP region of the feature store")

	rootCmd.Flags().StringVar(&gcsOutputPath, "gcs-output-path", "", "root gs:// path for blob outputs; empty means console-only")
	rootCmd.Flags().StringVar(&featureQueryFile, "feature-query-file", "", "request template path (local or gs://)")
	rootCmd.Flags().StringVar(&entityFile, "entity-file", "", "entity listing path (local or gs://); mutually exclusive with --entity-query")
	rootCmd.Flags().StringVar(&entityQuery, "entity-query", "", "warehouse query returning featurestore_id, entity_type_id, entity_id; mutually exclusive with --entity-file")
	rootCmd.Flags().StringVar(&bigqueryOutputDataset, "bigquery-output-dataset", "", "target dataset; empty means auto-named")
	rootCmd.Flags().Int64Var(&detailedResultByteBudget, "detailed-result-byte-budget", 0, "detailed CSV rotation threshold in bytes; 0 means default")

	rootCmd.Flags().StringVar(&apiVersion, "api-version", "v1", "v1 or v1beta1")
	rootCmd.Flags().StringVar(&endpointOverride, "endpoint-override", "", "override the default aiplatform endpoint")
	rootCmd.Flags().Int64Var(&randomSeed, "random-seed", 0, "seed for SHUFFLED work-queue construction")
	rootCmd.Flags().BoolVar(&liveProgress, "live-progress", false, "print a best-effort latency snapshot while measuring")
}

func initConfig() {
	hasRandomSeed = rootCmd.Flags().Changed("random-seed")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".vertex-ai-benchmarker")
		}
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func strategyFromFlag(s string) (manager.Strategy, error) {
	switch s {
	case "in_order", "":
		return manager.InOrder, nil
	case "shuffled":
		return manager.Shuffled, nil
	default:
		return 0, fmt.Errorf("unknown sample-strategy %q: want in_order or shuffled", s)
	}
}

func apiVersionFromFlag(s string) (caller.APIVersion, error) {
	switch s {
	case "v1", "":
		return caller.V1, nil
	case "v1beta1":
		return caller.V1beta1, nil
	default:
		return 0, fmt.Errorf("unknown api-version %q: want v1 or v1beta1", s)
	}
}

func runBenchmark(ctx context.Context) error {
	strategy, err := strategyFromFlag(sampleStrategy)
	if err != nil {
		return err
	}
	version, err := apiVersionFromFlag(apiVersion)
	if err != nil {
		return err
	}
	if entityFile != "" && entityQuery != "" {
		return fmt.Errorf("--entity-file and --entity-query are mutually exclusive")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("constructing storage client: %w", err)
	}
	defer storageClient.Close()

	bqClient, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("constructing bigquery client: %w", err)
	}
	defer bqClient.Close()

	builder := &corpus.Builder{
		TemplatePath:   featureQueryFile,
		EntityFilePath: entityFile,
		EntityQuery:    entityQuery,
		StorageClient:  storageClient,
		BigQueryClient: bqClient,
	}
	built, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("building corpus: %w", err)
	}

	c, err := caller.Build(ctx, version, caller.BuilderConfig{
		Project:          projectID,
		Location:         region,
		EndpointOverride: endpointOverride,
	})
	if err != nil {
		return fmt.Errorf("building caller: %w", err)
	}
	defer c.Close()

	cfg := manager.Config{
		TargetQPS:           targetQPS,
		WorkerThreads:       numThreads,
		Strategy:            strategy,
		WarmupSampleCount:   numWarmupSamples,
		MeasuredSampleCount: numSamples,
		LiveProgress:        liveProgress,
	}
	if hasRandomSeed {
		cfg.Seed = &randomSeed
	}

	m := manager.New(cfg, c, built)
	runResult, err := m.Run(ctx)
	if err != nil {
		return fmt.Errorf("running benchmark: %w", err)
	}

	var blobSink results.BlobSink
	var warehouseSink results.WarehouseSink
	if gcsOutputPath != "" {
		bucket, _, err := gcspath.Parse(gcspath.Normalize(gcsOutputPath))
		if err != nil {
			return err
		}
		blobSink = results.NewGCSBlobSink(storageClient, bucket, projectID)
		warehouseSink = results.NewBigQueryWarehouseSink(bqClient)
	}

	writer := results.NewWriter(results.Config{
		GCSOutputPath:   gcsOutputPath,
		BigQueryDataset: bigqueryOutputDataset,
		ByteBudget:      detailedResultByteBudget,
	}, blobSink, warehouseSink, os.Stdout)

	identity := results.Identity{
		FormattedTimestamp: runResult.Identity.FormattedTimestamp,
		UUID:               runResult.Identity.UUID,
	}
	if err := writer.Flush(ctx, identity, runResult.Aggregate, targetQPS, runResult.Results); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}
	return nil
}
