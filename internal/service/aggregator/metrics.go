package aggregator

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.GaugeVec
	lastSync prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liver_streams",
			Name:      "source_fetch_total",
			Help:      "Schedule fetches per source and result.",
		}, []string{"affiliation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "liver_streams",
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching one source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"affiliation"}),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "liver_streams",
			Name:      "events",
			Help:      "Events in the current snapshot per affiliation.",
		}, []string{"affiliation"}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "liver_streams",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.duration, m.events, m.lastSync)
	}
	return m
}
