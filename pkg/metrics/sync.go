package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var syncCnt = &Metric{
	ID:          "syncCnt",
	Name:        "sync_total",
	Description: "How many subscription syncs ran, partitioned by operation and result.",
	Type:        "counter_vec",
	Args:        []string{"operation", "result"},
}

var syncDur = &Metric{
	ID:          "syncDur",
	Name:        "sync_dur_ms",
	Description: "Subscription sync latency in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"operation"},
}

// SyncMetrics records reconciliation outcomes. A nil *SyncMetrics is a no-op.
type SyncMetrics struct {
	count *prometheus.CounterVec
	dur   *prometheus.HistogramVec
}

// NewSyncMetrics registers the sync collectors with reg. Collectors already
// registered under the same name are reused.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &SyncMetrics{
		count: register(reg, NewMetric(syncCnt, "subsync")).(*prometheus.CounterVec),
		dur:   register(reg, NewMetric(syncDur, "subsync")).(*prometheus.HistogramVec),
	}
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
	}
	return c
}

// Observe records one finished sync.
func (m *SyncMetrics) Observe(operation, result string, start time.Time) {
	if m == nil {
		return
	}
	m.count.WithLabelValues(operation, result).Inc()
	m.dur.WithLabelValues(operation).Observe(MillisecondsSince(start))
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
