package configuration

type SensorConfig struct {
	ID         string                  `json:"id"`
	Sht4x      *Sht4xSensorConfig      `json:"sht4x,omitempty"`
	Thermistor *ThermistorSensorConfig `json:"thermistor,omitempty"`
}

const (
	// PrecisionLow trades resolution for the shortest measurement duration
	PrecisionLow    = "low"
	PrecisionMedium = "medium"
	PrecisionHigh   = "high"
)

type Sht4xSensorConfig struct {
	// I2CChannel is the index of the bus the sensor is wired to
	I2CChannel int `json:"i2cChannel"`
	// I2CAddress is the device address, 0x44 for most SHT4x variants
	I2CAddress uint16 `json:"i2cAddress"`
	// Precision selects the sensor-internal measurement duration/resolution
	// trade-off, one of: low | medium | high
	Precision string `json:"precision"`
}

type ThermistorSensorConfig struct {
	// AdcChannel is the analog input the voltage divider is wired to
	AdcChannel int `json:"adcChannel"`
	// NominalTemp is the datasheet reference temperature in °C
	NominalTemp float64 `json:"nominalTemp"`
	// Beta is the thermistor material constant from the datasheet
	Beta float64 `json:"beta"`
	// NominalResistance is the thermistor resistance at NominalTemp in Ohm
	NominalResistance float64 `json:"nominalResistance"`
	// ReferenceResistance is the fixed divider resistor in Ohm
	ReferenceResistance float64 `json:"referenceResistance"`
}
