package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "notifications_sent_total",
			Help:      "Outbound notifications, partitioned by channel and result.",
		},
		[]string{"channel", "result"}, // result: ok | error
	)

	notificationsDelayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "notifications_delayed_total",
			Help:      "Push payloads deferred to the next business morning.",
		},
	)
)

func init() {
	register(notificationsSent, notificationsDelayed)
}

func IncNotificationSent(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notificationsSent.WithLabelValues(channel, result).Inc()
}

func IncNotificationDelayed() { notificationsDelayed.Inc() }
