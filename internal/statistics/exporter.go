package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "pico_venti"
)

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
