package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var generationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "generation_queue_depth",
	Help: "Prompts waiting for the language model",
})

var documentsIngested = promauto.NewCounter(prometheus.CounterOpts{
	Name: "documents_ingested_total",
	Help: "Documents loaded by the indexing pipeline",
})

var chunksIngested = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chunks_ingested_total",
	Help: "Chunks embedded and written to the index",
})

var skippedFiles = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingest_skipped_files_total",
	Help: "Files the loader could not read",
})

var embeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "embedding_cache_hits_total",
	Help: "Embeddings served from the cache",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementQueueDepth() {
	generationQueueDepth.Inc()
}

func DecrementQueueDepth() {
	generationQueueDepth.Dec()
}

func AddDocumentsIngested(n int) {
	documentsIngested.Add(float64(n))
}

func AddChunksIngested(n int) {
	chunksIngested.Add(float64(n))
}

func IncrementSkippedFiles() {
	skippedFiles.Inc()
}

func IncrementEmbeddingCacheHits() {
	embeddingCacheHits.Inc()
}

var questionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "answer_duration_seconds",
	Help:    "Total time spent answering one question.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of pipeline steps and external calls.",
	Buckets: []float64{.005, .05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureQuestionMetrics(label string, timeElapsed time.Duration) {
	questionDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
