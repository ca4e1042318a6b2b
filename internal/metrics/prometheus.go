package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumina_documents_ingested_total",
			Help: "Documents uploaded to the search service",
		},
		[]string{"doc_type"},
	)

	DuplicatesFiltered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_upsert_duplicates_filtered_total",
			Help: "Candidate documents dropped by the upsert id filter",
		},
	)

	QAPairsProduced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_qa_pairs_produced_total",
			Help: "Question/answer pairs synthesized from content",
		},
	)

	RateLimitWaits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_rate_limit_waits_total",
			Help: "Backoff sleeps honored after 429 responses",
		},
	)

	QueriesAnswered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumina_queries_answered_total",
			Help: "Questions answered in the console session",
		},
		[]string{"status"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lumina_query_duration_seconds",
			Help:    "End-to-end answer latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	FeedbackRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumina_feedback_recorded_total",
			Help: "Feedback reactions recorded",
		},
		[]string{"kind"},
	)

	FeedbackDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_feedback_dropped_total",
			Help: "Reaction updates dropped after concurrent-write retries",
		},
	)
)

func Init() {
	prometheus.MustRegister(DocumentsIngested)
	prometheus.MustRegister(DuplicatesFiltered)
	prometheus.MustRegister(QAPairsProduced)
	prometheus.MustRegister(RateLimitWaits)
	prometheus.MustRegister(QueriesAnswered)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(FeedbackRecorded)
	prometheus.MustRegister(FeedbackDropped)
}

// Handler exposes the prometheus registry to the ops listener.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
