package metrics

import "github.com/prometheus/client_golang/prometheus"

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "booking",
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	},
	[]string{"version", "go_version"},
)

func init() {
	register(buildInfo)
}

func SetBuildInfo(version, goVersion string) {
	buildInfo.WithLabelValues(version, goVersion).Set(1)
}
