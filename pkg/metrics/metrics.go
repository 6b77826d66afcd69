package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	recruitflow = "recruitflow"

	// Pipeline metrics
	batchesStartedTotal   = "batches_started_total"
	batchesFinishedTotal  = "batches_finished_total"
	resumesProcessedTotal = "resumes_processed_total"
	llmFallbacksTotal     = "llm_fallbacks_total"

	// Labels
	batchStatusLabel   = "status"
	resumeOutcomeLabel = "outcome"
	llmProviderLabel   = "provider"
)

/**
* Metrics definition
**/
var batchesStartedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: recruitflow,
		Name:      batchesStartedTotal,
		Help:      "number of resume batches started",
	},
)

var batchesFinishedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitflow,
		Name:      batchesFinishedTotal,
		Help:      "number of resume batches reaching a terminal status",
	},
	[]string{batchStatusLabel},
)

var resumesProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitflow,
		Name:      resumesProcessedTotal,
		Help:      "number of resumes processed, partitioned by outcome (completed, failed, deduped)",
	},
	[]string{resumeOutcomeLabel},
)

var llmFallbacksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitflow,
		Name:      llmFallbacksTotal,
		Help:      "number of times a text-generation provider failed over to the next in the chain",
	},
	[]string{llmProviderLabel},
)

func IncreaseBatchesStartedMetric() {
	batchesStartedTotalMetric.Inc()
}

func IncreaseBatchesFinishedMetric(status string) {
	batchesFinishedTotalMetric.With(prometheus.Labels{batchStatusLabel: status}).Inc()
}

func IncreaseResumesProcessedMetric(outcome string) {
	resumesProcessedTotalMetric.With(prometheus.Labels{resumeOutcomeLabel: outcome}).Inc()
}

func IncreaseLlmFallbacksMetric(provider string) {
	llmFallbacksTotalMetric.With(prometheus.Labels{llmProviderLabel: provider}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(batchesStartedTotalMetric)
	prometheus.MustRegister(batchesFinishedTotalMetric)
	prometheus.MustRegister(resumesProcessedTotalMetric)
	prometheus.MustRegister(llmFallbacksTotalMetric)
}
