package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var dbQueryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "booking",
		Name:      "db_query_duration_seconds",
		Help:      "Repository query latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"repo", "method"},
)

func init() {
	register(dbQueryDuration)
}

func ObserveQuery(repo, method string, start time.Time) {
	dbQueryDuration.WithLabelValues(repo, method).Observe(time.Since(start).Seconds())
}
