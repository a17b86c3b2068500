package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Line status label values.
const (
	StatusDecoded        = "decoded"
	StatusErrorDelimiter = "error_delimiter"
	StatusErrorTimestamp = "error_timestamp"
	StatusErrorInvalid   = "error_invalid"
	StatusErrorOther     = "error_other"
)

// ConvertMetrics holds all Prometheus metrics for a conversion run.
type ConvertMetrics struct {
	LinesTotal    *prometheus.CounterVec
	BytesTotal    prometheus.Counter
	EventsShipped *prometheus.CounterVec
	SpoolActive   prometheus.Gauge
}

// NewConvertMetrics initializes the metrics and registers them on reg.
// A nil reg leaves them unregistered, which is what tests and one-shot runs want.
func NewConvertMetrics(reg prometheus.Registerer) *ConvertMetrics {
	factory := promauto.With(reg)
	return &ConvertMetrics{
		LinesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogfc",
			Subsystem: "decode",
			Name:      "lines_total",
			Help:      "Total number of input lines by decode status.",
		}, []string{"status"}), // status: decoded, error_delimiter, error_timestamp, error_invalid, error_other
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "syslogfc",
			Subsystem: "decode",
			Name:      "bytes_total",
			Help:      "Total number of input bytes read.",
		}),
		EventsShipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogfc",
			Subsystem: "ship",
			Name:      "events_total",
			Help:      "Total number of decoded events handed to sinks, by sink and status.",
		}, []string{"sink", "status"}), // status: delivered, failed
		SpoolActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "syslogfc",
			Subsystem: "ship",
			Name:      "spool_active_gauge",
			Help:      "Indicates if events are currently being spooled to disk (1 for active, 0 for inactive).",
		}),
	}
}
