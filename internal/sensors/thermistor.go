package sensors

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/platform"
)

const kelvinOffset = 273.15

// ThermistorSensor converts averaged raw ADC samples from an NTC
// voltage divider into a temperature using the Beta equation.
type ThermistorSensor struct {
	Config configuration.SensorConfig

	reader *hwio.ADCReader

	avgMu     sync.Mutex
	movingAvg float64
}

func NewThermistorSensor(config configuration.SensorConfig, reader *hwio.ADCReader) *ThermistorSensor {
	return &ThermistorSensor{
		Config: config,
		reader: reader,
	}
}

func (sensor *ThermistorSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *ThermistorSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *ThermistorSensor) Measure() (Measurement, error) {
	raw, err := sensor.reader.Read(sensor.Config.Thermistor.AdcChannel)
	if err != nil {
		return Measurement{}, err
	}

	celsius, err := sensor.celsiusFromRaw(raw)
	if err != nil {
		return Measurement{}, fmt.Errorf("sensor %s: %w", sensor.Config.ID, err)
	}
	return Measurement{Celsius: celsius}, nil
}

func (sensor *ThermistorSensor) MeasurementLatency() time.Duration {
	// ADC sampling is fast compared to I2C sensors; a small fixed
	// allowance covers the averaged burst of samples
	return 5 * time.Millisecond
}

func (sensor *ThermistorSensor) GetMovingAvg() (avg float64) {
	sensor.avgMu.Lock()
	defer sensor.avgMu.Unlock()
	return sensor.movingAvg
}

func (sensor *ThermistorSensor) SetMovingAvg(avg float64) {
	sensor.avgMu.Lock()
	defer sensor.avgMu.Unlock()
	sensor.movingAvg = avg
}

// celsiusFromRaw derives the divider resistance from the raw reading
// and applies the Beta equation:
//
//	1/T = 1/T_nominal + ln(R/R_nominal)/beta
//
// A reading at either end of the ADC range means an open or shorted
// divider. Those, and any non-positive intermediate value, are faults;
// the logarithm must never see a value <= 0.
func (sensor *ThermistorSensor) celsiusFromRaw(raw float64) (float64, error) {
	thermistor := sensor.Config.Thermistor

	if raw <= 0 || raw >= platform.AdcMaxValue {
		return 0, fmt.Errorf("raw reading %.0f out of range (open or shorted divider)", raw)
	}

	// R = Rref / ((ADCmax/reading) - 1), from the voltage divider equation
	resistance := thermistor.ReferenceResistance / ((platform.AdcMaxValue / raw) - 1)
	if resistance <= 0 {
		return 0, fmt.Errorf("non-positive divider resistance %.1f", resistance)
	}

	ratio := resistance / thermistor.NominalResistance
	if ratio <= 0 {
		return 0, fmt.Errorf("non-positive resistance ratio %.4f", ratio)
	}

	invNominal := 1 / (thermistor.NominalTemp + kelvinOffset)
	invTemp := invNominal + math.Log(ratio)/thermistor.Beta
	if invTemp <= 0 {
		return 0, fmt.Errorf("reading outside the valid range of the beta model")
	}

	return 1/invTemp - kelvinOffset, nil
}
