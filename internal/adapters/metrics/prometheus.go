// Package metrics implements ports.MetricsRecorder with Prometheus counters
// and histograms, following the teacher's promauto wiring style.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunksInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_audio_chunks_in_total",
		Help: "Total inbound audio chunks received from the carrier",
	}, []string{"agent_id"})

	chunksOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_audio_chunks_out_total",
		Help: "Total outbound audio chunks sent to the carrier",
	}, []string{"agent_id"})

	fillersPlayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_fillers_played_total",
		Help: "Total hedge fillers played while waiting on the model",
	}, []string{"agent_id"})

	interruptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_interruptions_total",
		Help: "Total user-barge-in interruptions of agent speech",
	}, []string{"agent_id"})

	modelLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicecore_model_latency_seconds",
		Help:    "Latency between turn start and first model audio byte",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5},
	}, []string{"agent_id"})

	stateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_state_transitions_total",
		Help: "Total call state machine transitions",
	}, []string{"agent_id", "from", "to"})

	// HTTPRequestsTotal and HTTPRequestDuration cover the ambient ops HTTP
	// surface (healthz/metrics), not the call path.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_http_requests_total",
		Help: "Total number of ops HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicecore_http_request_duration_seconds",
		Help:    "Ops HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Recorder implements ports.MetricsRecorder over the package-level
// Prometheus collectors registered with promauto's default registry.
type Recorder struct{}

// NewRecorder returns a Recorder ready to use; there is no per-instance
// state since promauto registers the collectors once at package init.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordChunkIn(agentID string) {
	chunksInTotal.WithLabelValues(agentID).Inc()
}

func (r *Recorder) RecordChunkOut(agentID string) {
	chunksOutTotal.WithLabelValues(agentID).Inc()
}

func (r *Recorder) RecordFillerPlayed(agentID string) {
	fillersPlayedTotal.WithLabelValues(agentID).Inc()
}

func (r *Recorder) RecordInterruption(agentID string) {
	interruptionsTotal.WithLabelValues(agentID).Inc()
}

func (r *Recorder) RecordModelLatency(agentID string, d time.Duration) {
	modelLatency.WithLabelValues(agentID).Observe(d.Seconds())
}

func (r *Recorder) RecordStateChange(agentID string, from, to string) {
	stateTransitionsTotal.WithLabelValues(agentID, from, to).Inc()
}
