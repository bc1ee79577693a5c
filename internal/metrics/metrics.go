package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK      = "ok"
	OutcomeMissing = "missing"
)

type RefreshMetrics struct {
	FetchOperationsTotal *prometheus.CounterVec
	RefreshDuration      prometheus.Histogram
	RefreshesTotal       *prometheus.CounterVec
	RowsAssembled        prometheus.Gauge
	LastRefreshTimestamp prometheus.Gauge
}

// NewRefreshMetrics registers the refresh metrics with reg. A nil reg uses
// the default registerer.
func NewRefreshMetrics(reg prometheus.Registerer) *RefreshMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &RefreshMetrics{
		FetchOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "superliga_fetch_operations_total",
				Help: "Sleeper read operations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		RefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "superliga_refresh_duration_seconds",
				Help:    "Wall time of a full standings refresh",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~4m
			},
		),

		RefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "superliga_refreshes_total",
				Help: "Refreshes by trigger",
			},
			[]string{"trigger"},
		),

		RowsAssembled: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "superliga_rows",
				Help: "Team rows in the latest snapshot",
			},
		),

		LastRefreshTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "superliga_last_refresh_timestamp_seconds",
				Help: "Unix time of the latest finished refresh",
			},
		),
	}
}

// RecordFetch counts one finished read operation of the given kind.
func (m *RefreshMetrics) RecordFetch(kind string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeMissing
	}
	m.FetchOperationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *RefreshMetrics) RecordRefresh(trigger string, durationSeconds float64, rows int, finishedUnix float64) {
	m.RefreshesTotal.WithLabelValues(trigger).Inc()
	m.RefreshDuration.Observe(durationSeconds)
	m.RowsAssembled.Set(float64(rows))
	m.LastRefreshTimestamp.Set(finishedUnix)
}
