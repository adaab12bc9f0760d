package statistics

import (
	"github.com/Mosical/pico-venti/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	ctl *controller.Controller

	cycles *prometheus.Desc
}

func NewControllerCollector(ctl *controller.Controller) *ControllerCollector {
	return &ControllerCollector{
		ctl: ctl,
		cycles: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "cycles_total"),
			"Number of completed control cycles",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.cycles
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.ctl.Snapshot()
	if snapshot == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(collector.cycles, prometheus.CounterValue, float64(snapshot.Cycle))
}
