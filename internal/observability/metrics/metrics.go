package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics exposes counters/histograms for webhook dispatch runs.
type DeliveryMetrics struct {
	deliveryTotal *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	m := &DeliveryMetrics{
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "queue",
			Name:      "delivery_total",
			Help:      "Total webhook delivery attempts",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadrelay",
			Subsystem: "queue",
			Name:      "dispatch_run_duration_seconds",
			Help:      "Duration of full dispatch runs",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.deliveryTotal, m.runDuration)
	return m
}

func (m *DeliveryMetrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(status).Inc()
}

func (m *DeliveryMetrics) ObserveRun(seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.Observe(seconds)
}
