package controller

import (
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/curves"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/Mosical/pico-venti/internal/sensors"
)

// Topology is one consistent, immutable configuration snapshot together
// with all runtime objects derived from it. It is built as a whole,
// validated before it is built, and swapped in atomically between
// control cycles; it is never mutated in place.
type Topology struct {
	Config configuration.Configuration

	Registry *sensors.Registry
	Curves   []curves.SpeedCurve
	Fans     []fans.Fan

	// CurveSensors maps each curve id to the transitive set of sensor
	// ids feeding it, used for per-fan fault handling.
	CurveSensors map[string][]string
}

// BuildTopology derives all runtime objects from a validated
// configuration. Construction failures at boot are fatal for the
// caller; during a live reload they reject the new topology and leave
// the active one running.
func BuildTopology(config configuration.Configuration, p platform.Platform) (*Topology, error) {
	config = configuration.Clone(config)

	i2cManager := hwio.NewI2CManager(p)
	adcReader := hwio.NewADCReader(p, config.Platform.AdcSamples)

	var sensorList []sensors.Sensor
	for _, sensorConfig := range config.Sensors {
		sensor, err := sensors.NewSensor(sensorConfig, i2cManager, adcReader)
		if err != nil {
			return nil, err
		}
		sensorList = append(sensorList, sensor)
	}

	var curveList []curves.SpeedCurve
	for _, curveConfig := range config.Curves {
		curve, err := curves.NewSpeedCurve(curveConfig)
		if err != nil {
			return nil, err
		}
		curveList = append(curveList, curve)
	}

	var fanList []fans.Fan
	for _, fanConfig := range config.Fans {
		fan, err := fans.NewFan(fanConfig, p, config.Platform.PwmFrequency)
		if err != nil {
			return nil, err
		}
		fanList = append(fanList, fan)
	}

	curveSensors := map[string][]string{}
	for _, curveConfig := range config.Curves {
		curveSensors[curveConfig.ID] = curves.SensorIds(curveConfig.ID, &config)
	}

	return &Topology{
		Config:       config,
		Registry:     sensors.NewRegistry(sensorList, config.Controller.TempRollingWindowSize),
		Curves:       curveList,
		Fans:         fanList,
		CurveSensors: curveSensors,
	}, nil
}

// Activate publishes the topology's objects in the global lookup maps
// used by curve evaluation, the api and the statistics collectors.
func (t *Topology) Activate() {
	sensors.SensorMap.Clear()
	for _, sensor := range t.Registry.Sensors() {
		sensors.SensorMap.Set(sensor.GetId(), sensor)
	}

	curves.SpeedCurveMap.Clear()
	for _, curve := range t.Curves {
		curves.SpeedCurveMap.Set(curve.GetId(), curve)
	}

	fans.FanMap.Clear()
	for _, fan := range t.Fans {
		fans.FanMap.Set(fan.GetId(), fan)
	}
}
