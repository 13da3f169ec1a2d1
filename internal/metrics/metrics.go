// Package metrics содержит Prometheus метрики подсистемы учёта посещений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "blog"
	Subsystem = "visits"
)

// Metrics счётчики конвейера записи посещений
type Metrics struct {
	Enqueued   prometheus.Counter
	Recorded   prometheus.Counter
	Failed     prometheus.Counter
	Dropped    prometheus.Counter
	Duplicates prometheus.Counter
	Purged     prometheus.Counter
	QueueDepth prometheus.Gauge
}

// New регистрирует метрики в reg. nil - регистратор по умолчанию.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		Enqueued:   factory.NewCounter(counterOpts("enqueued_total", "Visits accepted into the recorder queue")),
		Recorded:   factory.NewCounter(counterOpts("recorded_total", "Visits persisted to the log store")),
		Failed:     factory.NewCounter(counterOpts("failed_total", "Visits lost after all persistence attempts")),
		Dropped:    factory.NewCounter(counterOpts("dropped_total", "Visits dropped because the queue was full or stopped")),
		Duplicates: factory.NewCounter(counterOpts("duplicates_total", "Requests suppressed by the dedup window")),
		Purged:     factory.NewCounter(counterOpts("purged_total", "Log records deleted by retention")),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "queue_depth",
			Help:      "Visits waiting in the recorder queue",
		}),
	}
}

// NewNop метрики в отдельном реестре, для тестов и утилит
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: Subsystem,
		Name:      name,
		Help:      help,
	}
}
