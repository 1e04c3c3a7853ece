package metrics

import "github.com/prometheus/client_golang/prometheus"

var jobsExpired = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "booking",
		Name:      "jobs_expired_total",
		Help:      "Pending bookings timed out by the sweeper.",
	},
)

func init() {
	register(jobsExpired)
}

func AddJobsExpired(n int) { jobsExpired.Add(float64(n)) }
