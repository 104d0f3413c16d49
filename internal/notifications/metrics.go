package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safecheck_inactivity_runs_total",
			Help: "Total inactivity check runs",
		},
		[]string{"result"},
	)

	usersScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "safecheck_users_scanned_total",
			Help: "Total users evaluated by inactivity runs",
		},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safecheck_notifications_total",
			Help: "Emergency contact notifications by outcome",
		},
		[]string{"outcome"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "safecheck_inactivity_run_duration_seconds",
			Help:    "Duration of inactivity check runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	lastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "safecheck_inactivity_last_run_timestamp_seconds",
			Help: "Unix time of the last completed inactivity run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		usersScannedTotal,
		notificationsTotal,
		runDuration,
		lastRunTimestamp,
	)
}

// recordRun records metrics for a finished run.
func recordRun(s *Summary) {
	result := "ok"
	switch {
	case s.DryRun:
		result = "dry_run"
	case !s.OK():
		result = "degraded"
	}
	runsTotal.WithLabelValues(result).Inc()
	usersScannedTotal.Add(float64(s.UsersScanned))
	for _, r := range s.Results {
		notificationsTotal.WithLabelValues(string(r.Outcome)).Inc()
	}
	runDuration.Observe(s.Duration.Seconds())
	lastRunTimestamp.Set(float64(time.Now().Unix()))
}

// recordAbortedRun counts a run that failed before producing a summary.
func recordAbortedRun() {
	runsTotal.WithLabelValues("error").Inc()
}
