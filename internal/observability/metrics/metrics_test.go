package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDeliveryMetricsObserve(t *testing.T) {
	m := NewDeliveryMetrics(prometheus.NewRegistry())
	m.ObserveDelivery("success")
	m.ObserveDelivery("failed")
	m.ObserveRun(0.3)
}

func TestDeliveryMetricsNilSafe(t *testing.T) {
	var m *DeliveryMetrics
	m.ObserveDelivery("success")
	m.ObserveRun(0.1)
}
