// Package metrics exposes Prometheus collectors for the async core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements the queue and webhook observer interfaces.
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	deliveriesTotal *prometheus.CounterVec
	deliveryLatency prometheus.Histogram
}

// New registers the gateway collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_jobs_processed_total",
			Help: "Queue jobs processed, by job name and result.",
		}, []string{"job", "result"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payflow_job_duration_seconds",
			Help:    "Queue job execution time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_webhook_deliveries_total",
			Help: "Webhook delivery attempts, by result.",
		}, []string{"result"}),
		deliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payflow_webhook_attempt_duration_seconds",
			Help:    "Outbound webhook call latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveJob records one executed queue job.
func (m *Metrics) ObserveJob(job, result string, duration time.Duration) {
	m.jobsTotal.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// ObserveDelivery records one webhook delivery attempt.
func (m *Metrics) ObserveDelivery(result string, duration time.Duration) {
	m.deliveriesTotal.WithLabelValues(result).Inc()
	m.deliveryLatency.Observe(duration.Seconds())
}

// RegisterQueueDepth exposes the pending-job count as a gauge sampled on
// scrape.
func RegisterQueueDepth(reg prometheus.Registerer, depth func() int64) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "payflow_queue_depth",
		Help: "Jobs waiting in the pending queue.",
	}, func() float64 {
		return float64(depth())
	}))
}
