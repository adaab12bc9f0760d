package statistics

import (
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSensor = "sensor"

type SensorCollector struct {
	value *prometheus.Desc
}

func NewSensorCollector() *SensorCollector {
	return &SensorCollector{
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value"),
			"Current smoothed temperature of the sensor in °C",
			[]string{"id"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
}

// Collect implements required collect function for all prometheus collectors.
// Sensors are looked up live so a configuration reload is picked up
// without re-registering the collector.
func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	for entry := range sensors.SensorMap.IterBuffered() {
		sensor := entry.Val
		ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, sensor.GetMovingAvg(), sensor.GetId())
	}
}
