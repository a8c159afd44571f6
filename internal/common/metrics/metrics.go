package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// outcome is "success" or "fallback"; reason is the error code of the
	// failed call, empty on success.
	ItemPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_item_results_total",
			Help: "Per-movie prediction results by outcome",
		},
		[]string{"outcome", "reason"},
	)

	PredictionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_request_duration_seconds",
			Help:    "Latency of calls to the prediction service",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	PredictionBatchesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_batches_rejected_total",
			Help: "Enrichment batches skipped because the feature vector was invalid",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CatalogSourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_source_attempts_total",
			Help: "Catalog source attempts by source and result",
		},
		[]string{"source", "result"},
	)

	CatalogUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_unavailable_total",
			Help: "Catalog loads where every source failed",
		},
	)

	SurveysSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "surveys_submitted_total",
			Help: "Surveys normalized and stored",
		},
	)

	BrowseRefreshesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "browse_refreshes_superseded_total",
			Help: "Catalog refreshes cancelled by a newer refresh for the same session",
		},
	)
)
