package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the turn pipeline. A nil
// *Metrics is valid and records nothing, so tests can skip registration.
type Metrics struct {
	TurnsStarted      prometheus.Counter
	TurnsCompleted    prometheus.Counter
	TurnsDeduplicated prometheus.Counter

	TranscriptionFailures *prometheus.CounterVec
	TranscriptionRetries  prometheus.Counter
	GenerationFailures    prometheus.Counter
	SynthesisFailures     prometheus.Counter

	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TurnsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_turns_started_total",
			Help: "Total number of turn pipeline runs started",
		}),
		TurnsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_turns_completed_total",
			Help: "Total number of turns that appended a user/assistant pair",
		}),
		TurnsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_turns_deduplicated_total",
			Help: "Total number of mic captures skipped by the dedup marker",
		}),
		TranscriptionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_transcription_failures_total",
			Help: "Transcription failures by kind",
		}, []string{"kind"}),
		TranscriptionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_transcription_retries_total",
			Help: "Total number of transcription retries after an unavailable service",
		}),
		GenerationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_generation_failures_total",
			Help: "Total number of failed chat completions",
		}),
		SynthesisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_synthesis_failures_total",
			Help: "Total number of failed speech syntheses",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicechat_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

func (m *Metrics) IncTurnsStarted() {
	if m != nil {
		m.TurnsStarted.Inc()
	}
}

func (m *Metrics) IncTurnsCompleted() {
	if m != nil {
		m.TurnsCompleted.Inc()
	}
}

func (m *Metrics) IncTurnsDeduplicated() {
	if m != nil {
		m.TurnsDeduplicated.Inc()
	}
}

func (m *Metrics) IncTranscriptionFailure(kind string) {
	if m != nil {
		m.TranscriptionFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncTranscriptionRetry() {
	if m != nil {
		m.TranscriptionRetries.Inc()
	}
}

func (m *Metrics) IncGenerationFailure() {
	if m != nil {
		m.GenerationFailures.Inc()
	}
}

func (m *Metrics) IncSynthesisFailure() {
	if m != nil {
		m.SynthesisFailures.Inc()
	}
}

func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
