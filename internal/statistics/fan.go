package statistics

import (
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	duty *prometheus.Desc
}

func NewFanCollector() *FanCollector {
	return &FanCollector{
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "duty"),
			"Currently applied duty of the fan in percent",
			[]string{"id"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.duty
}

// Collect implements required collect function for all prometheus collectors
func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	for entry := range fans.FanMap.IterBuffered() {
		fan := entry.Val
		ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, float64(fan.GetDuty()), fan.GetId())
	}
}
