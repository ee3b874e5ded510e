package targeting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pass results used as metric labels.
const (
	resultOK               = "ok"
	resultInvalidInput     = "invalid_input"
	resultStoreUnavailable = "store_unavailable"
)

var (
	// PassesTotal counts targeting passes.
	// Labels: result (ok, invalid_input, store_unavailable)
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "news_notifier",
			Subsystem: "targeting",
			Name:      "passes_total",
			Help:      "Total number of targeting passes by result",
		},
		[]string{"result"},
	)

	// TargetsTotal counts notification targets produced.
	// Labels: channel (email, push)
	TargetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "news_notifier",
			Subsystem: "targeting",
			Name:      "targets_total",
			Help:      "Total number of notification targets produced by channel",
		},
		[]string{"channel"},
	)

	// PassDuration tracks how long a targeting pass takes.
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "news_notifier",
			Subsystem: "targeting",
			Name:      "pass_duration_seconds",
			Help:      "Duration of targeting passes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
