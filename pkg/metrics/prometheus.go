package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Sentinel/internal/domain/models"
)

const namespace = "sentinel"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	verdicts    *prometheus.CounterVec
	killSwitch  prometheus.Gauge
	sourceFetch *prometheus.CounterVec
	kafkaTotal  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		verdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Verdicts produced, by action class and veto",
			},
			[]string{"class", "vetoed"},
		),
		killSwitch: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kill_switch_active",
			Help:      "1 while the global kill switch is on",
		}),
		sourceFetch: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetch_total",
				Help:      "Realtime source fetches, by source and outcome",
			},
			[]string{"source", "result"},
		),
		kafkaTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_messages_total",
				Help:      "Kafka messages, by topic, direction and outcome",
			},
			[]string{"topic", "direction", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordVerdict(class models.ActionClass, vetoed bool) {
	r.verdicts.WithLabelValues(string(class), boolLabel(vetoed)).Inc()
}

func (r *Recorder) RecordKillSwitch(active bool) {
	if active {
		r.killSwitch.Set(1)
		return
	}
	r.killSwitch.Set(0)
}

func (r *Recorder) RecordSourceFetch(source string, ok bool) {
	r.sourceFetch.WithLabelValues(source, result(ok)).Inc()
}

// RecordKafka counts one message; direction is "in" or "out".
func (r *Recorder) RecordKafka(topic, direction string, ok bool) {
	r.kafkaTotal.WithLabelValues(topic, direction, result(ok)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
