package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalake_pipeline_runs_total",
		Help: "The total number of pipeline runs started",
	})
	PipelineFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datalake_pipeline_failures_total",
		Help: "The total number of pipeline runs that failed, by step",
	}, []string{"step"})
	PipelineStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datalake_pipeline_step_duration_seconds",
		Help:    "Duration of each pipeline step",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	// Fetcher Metrics
	FetcherRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalake_fetcher_requests_total",
		Help: "The total number of requests issued to the sports data API",
	})
	FetcherRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalake_fetcher_records_total",
		Help: "The total number of player records fetched from the sports data API",
	})

	// Storage Metrics
	StorageBytesUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalake_storage_bytes_uploaded_total",
		Help: "The total number of bytes uploaded to S3",
	})

	// Sink Metrics
	SinkEmitErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datalake_sink_emit_errors_total",
		Help: "The total number of errors occurred while emitting events to CloudWatch Logs",
	})
)
