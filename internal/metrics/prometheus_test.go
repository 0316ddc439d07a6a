package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	tests := []struct {
		name   string
		metric prometheus.Collector
	}{
		{"ForwardRequestsTotal", ForwardRequestsTotal},
		{"ForwardDuration", ForwardDuration},
		{"ForwardPayloadBytes", ForwardPayloadBytes},
		{"QueueMessagesTotal", QueueMessagesTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s is nil", tt.name)
			}
		})
	}
}

func TestForwardRequestsCounter(t *testing.T) {
	before := testutil.ToFloat64(ForwardRequestsTotal.WithLabelValues(ResultRejected))
	ForwardRequestsTotal.WithLabelValues(ResultRejected).Inc()
	after := testutil.ToFloat64(ForwardRequestsTotal.WithLabelValues(ResultRejected))

	if after-before != 1 {
		t.Errorf("rejected counter delta: got %v, want 1", after-before)
	}
}

func TestHistograms(t *testing.T) {
	ForwardDuration.Observe(0.25)
	ForwardPayloadBytes.Observe(48 * 1024)
}
