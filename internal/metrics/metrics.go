// Package metrics records gate counts and lookup outcomes for a reformat run.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "leads"

// Metrics holds the run collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry
	rows     *prometheus.GaugeVec
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}

		return fmt.Errorf("register collector: %w", err)
	}

	return nil
}

// New creates the collectors on a fresh registry.
//
// Metrics registered:
//   - leads_rows{stage} - rows remaining after each pipeline stage
//   - leads_phone_lookups_total{result} - lookups by cache_hit, remote, service_error, skipped
//   - leads_run_duration_seconds - wall time of a pipeline run
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Rows remaining after each pipeline stage",
		}, []string{"stage"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phone_lookups_total",
			Help:      "Phone lookups by result",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}

	for _, c := range []prometheus.Collector{m.rows, m.lookups, m.duration} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SetRows records the row count after stage.
func (m *Metrics) SetRows(stage string, n int) {
	if m == nil {
		return
	}

	m.rows.WithLabelValues(stage).Set(float64(n))
}

// ObserveLookup counts one lookup outcome.
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}

	m.lookups.WithLabelValues(result).Inc()
}

// ObserveRun records the run duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}

	m.duration.Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the node-exporter textfile format. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
