package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Sync Metrics
var (
	PullsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePullsTotal,
			Help: HelpTextPullsTotal,
		},
		[]string{LabelRemoteNode, LabelStatus},
	)

	PullDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNamePullDuration,
			Help:    HelpTextPullDuration,
			Buckets: PullDurationBuckets,
		},
		[]string{LabelRemoteNode},
	)

	EntitiesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEntitiesApplied,
			Help: HelpTextEntitiesApplied,
		},
		[]string{LabelKind},
	)

	FilesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFilesFetched,
			Help: HelpTextFilesFetched,
		},
	)

	FilesMissing = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameFilesMissing,
			Help: HelpTextFilesMissing,
		},
	)

	ImportRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameImportRollbacks,
			Help: HelpTextImportRollbacks,
		},
	)

	ChannelSessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameChannelSessionsOpened,
			Help: HelpTextChannelSessionsOpened,
		},
	)
)
