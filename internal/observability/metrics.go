package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "candidate_recommender"

var (
	// EmbeddingCallsTotal counts upstream embedding requests by provider and outcome.
	EmbeddingCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "embedding_calls_total",
			Help:      "Total number of embedding provider calls",
		},
		[]string{"provider", "status"},
	)

	// EmbeddingDuration measures embedding request latency.
	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "embedding_duration_seconds",
			Help:      "Duration of embedding provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// EmbeddingBatchSize observes how many texts go into each call.
	EmbeddingBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "embedding_batch_size",
			Help:      "Number of texts per embedding call",
			Buckets:   []float64{1, 2, 4, 6, 8, 16, 32, 64},
		},
	)

	// ResumesProcessedTotal counts resumes by terminal stage.
	ResumesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resumes_processed_total",
			Help:      "Resumes processed, labeled by final stage",
		},
		[]string{"stage"},
	)

	// RankingRunsTotal counts ranking runs by outcome.
	RankingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ranking_runs_total",
			Help:      "Ranking runs, labeled by outcome",
		},
		[]string{"outcome"},
	)

	// RankingDuration measures end-to-end ranking latency.
	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ranking_duration_seconds",
			Help:      "Duration of ranking runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// CandidateScore observes overall scores of ranked candidates.
	CandidateScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "candidate_overall_score",
			Help:      "Distribution of overall candidate similarity scores",
			Buckets:   prometheus.LinearBuckets(-0.2, 0.1, 13),
		},
	)
)

// RecordEmbeddingCall records one embedding request.
func RecordEmbeddingCall(provider string, batchSize int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EmbeddingCallsTotal.WithLabelValues(provider, status).Inc()
	EmbeddingDuration.WithLabelValues(provider).Observe(duration.Seconds())
	EmbeddingBatchSize.Observe(float64(batchSize))
}

// RecordResume records the stage a resume finished in.
func RecordResume(stage string) {
	ResumesProcessedTotal.WithLabelValues(stage).Inc()
}

// RecordRankingRun records a finished ranking run.
func RecordRankingRun(outcome string, duration time.Duration) {
	RankingRunsTotal.WithLabelValues(outcome).Inc()
	RankingDuration.Observe(duration.Seconds())
}

// RecordCandidateScore records a ranked candidate's overall score.
func RecordCandidateScore(score float64) {
	CandidateScore.Observe(score)
}
