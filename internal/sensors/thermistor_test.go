package sensors

import (
	"testing"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/stretchr/testify/assert"
)

func createThermistorSensorConfig(id string, channel int) configuration.SensorConfig {
	return configuration.SensorConfig{
		ID: id,
		Thermistor: &configuration.ThermistorSensorConfig{
			AdcChannel:          channel,
			NominalTemp:         25,
			Beta:                3950,
			NominalResistance:   10000,
			ReferenceResistance: 10000,
		},
	}
}

func createThermistorOnSim(channel int) (*ThermistorSensor, *platform.SimPlatform) {
	sim := platform.NewSimPlatform()
	sensor := NewThermistorSensor(
		createThermistorSensorConfig("thermistor", channel),
		hwio.NewADCReader(sim, 4),
	)
	return sensor, sim
}

func TestThermistorMidScaleIsNominalTemp(t *testing.T) {
	// GIVEN
	// mid-scale means thermistor resistance == reference resistance,
	// which is the definition of the nominal temperature
	sensor, _ := createThermistorOnSim(0)

	// WHEN
	celsius, err := sensor.celsiusFromRaw(32767.5)

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 25, celsius, 0.001)
}

func TestThermistorHigherResistanceMeansLowerTemperature(t *testing.T) {
	// GIVEN
	sensor, _ := createThermistorOnSim(0)

	// WHEN
	warm, err := sensor.celsiusFromRaw(20000)
	assert.NoError(t, err)
	cold, err := sensor.celsiusFromRaw(45000)
	assert.NoError(t, err)

	// THEN
	assert.Less(t, cold, 25.0)
	assert.Greater(t, warm, 25.0)
	assert.Less(t, cold, warm)
}

func TestThermistorRangeEndsAreFaults(t *testing.T) {
	// GIVEN
	sensor, _ := createThermistorOnSim(0)

	// WHEN
	_, errLow := sensor.celsiusFromRaw(0)
	_, errHigh := sensor.celsiusFromRaw(65535)

	// THEN
	assert.Error(t, errLow)
	assert.Error(t, errHigh)
}

func TestThermistorMeasureOnSim(t *testing.T) {
	// GIVEN
	sensor, sim := createThermistorOnSim(1)
	sim.SetAdcRaw(1, 32767)

	// WHEN
	measurement, err := sensor.Measure()

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 25, measurement.Celsius, 0.1)
	assert.False(t, measurement.HasHumidity)
}

func TestThermistorMeasureSurfacesAdcErrors(t *testing.T) {
	// GIVEN
	sensor, sim := createThermistorOnSim(2)
	sim.FailAdc(2, 1)

	// WHEN
	_, err := sensor.Measure()

	// THEN
	assert.Error(t, err)
}
