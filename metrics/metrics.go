// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/attendance-engine/attendance"
)

// Metrics implements attendance.Observer and the cache lookup observer.
type Metrics struct {
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	Anomalies       *prometheus.CounterVec
	MissingShifts   prometheus.Counter
	RosterSize      prometheus.Gauge
	CacheLookups    *prometheus.CounterVec
	SchedulerErrors prometheus.Counter
}

// New registers every collector with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_recalculations_total",
			Help: "Recalculation runs by final status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_recalculation_duration_seconds",
			Help:    "Duration of recalculation runs",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"status"}),
		Anomalies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_reconciliation_anomalies_total",
			Help: "Punch pairing anomalies by kind",
		}, []string{"kind"}),
		MissingShifts: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_missing_shifts_total",
			Help: "Shift lookups that fell back to zero past-due hours",
		}),
		RosterSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_last_run_employees",
			Help: "Employees assessed by the most recent successful run",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_assessment_cache_lookups_total",
			Help: "Assessment cache reads by result",
		}, []string{"result"}),
		SchedulerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_scheduler_errors_total",
			Help: "Scheduled recalculations that failed",
		}),
	}
}

func (m *Metrics) ObserveRun(status attendance.RunStatus, d time.Duration) {
	m.Runs.WithLabelValues(string(status)).Inc()
	m.RunDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

func (m *Metrics) ObserveAnomaly(kind attendance.AnomalyKind) {
	m.Anomalies.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObserveMissingShift() {
	m.MissingShifts.Inc()
}

func (m *Metrics) ObserveEmployees(n int) {
	m.RosterSize.Set(float64(n))
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncrementSchedulerError records a failed scheduled recalculation.
func (m *Metrics) IncrementSchedulerError() {
	m.SchedulerErrors.Inc()
}
