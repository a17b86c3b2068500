package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewConvertMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConvertMetrics(reg)

	m.LinesTotal.WithLabelValues(StatusDecoded).Add(3)
	m.LinesTotal.WithLabelValues(StatusErrorInvalid).Inc()
	m.BytesTotal.Add(120)
	m.EventsShipped.WithLabelValues("redis", "delivered").Add(3)
	m.SpoolActive.Set(1)

	expected := `
# HELP syslogfc_decode_lines_total Total number of input lines by decode status.
# TYPE syslogfc_decode_lines_total counter
syslogfc_decode_lines_total{status="decoded"} 3
syslogfc_decode_lines_total{status="error_invalid"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "syslogfc_decode_lines_total"); err != nil {
		t.Errorf("unexpected lines metric: %v", err)
	}
	if got := testutil.ToFloat64(m.BytesTotal); got != 120 {
		t.Errorf("bytes_total = %v, want 120", got)
	}
	if got := testutil.ToFloat64(m.SpoolActive); got != 1 {
		t.Errorf("spool_active_gauge = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.EventsShipped); n != 1 {
		t.Errorf("expected 1 shipped series, got %d", n)
	}
}

func TestNewConvertMetricsUnregistered(t *testing.T) {
	// Two unregistered sets must not collide.
	a := NewConvertMetrics(nil)
	b := NewConvertMetrics(nil)
	a.BytesTotal.Inc()
	if testutil.ToFloat64(b.BytesTotal) != 0 {
		t.Error("unregistered metric sets share state")
	}
}
