package sensors

import (
	"fmt"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	SensorMap = cmap.New[Sensor]()
)

type ReadingStatus int

const (
	// StatusOk marks a fresh, valid measurement
	StatusOk ReadingStatus = iota
	// StatusStale marks a faulted poll holding the previous good value
	StatusStale
	// StatusFault marks a faulted poll with no good value to fall back on
	StatusFault
)

func (s ReadingStatus) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusStale:
		return "stale"
	default:
		return "fault"
	}
}

func (s ReadingStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Measurement is the raw result of a single hardware poll.
type Measurement struct {
	Celsius     float64
	Humidity    float64
	HasHumidity bool
}

// Reading is a measurement annotated with identity, time and validity,
// as published to curve evaluation and telemetry consumers.
type Reading struct {
	SourceID    string        `json:"sourceId"`
	Celsius     float64       `json:"celsius"`
	Humidity    float64       `json:"humidity,omitempty"`
	HasHumidity bool          `json:"hasHumidity"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      ReadingStatus `json:"status"`
}

type Sensor interface {
	GetId() string

	GetConfig() configuration.SensorConfig

	// Measure performs one hardware poll and returns the converted result
	Measure() (Measurement, error)

	// MeasurementLatency returns the worst-case duration of one Measure call,
	// used to check the scheduler's cycle budget
	MeasurementLatency() time.Duration

	// GetMovingAvg returns the moving average of this sensor's temperature
	GetMovingAvg() float64
	SetMovingAvg(avg float64)
}

// GetSensor returns the sensor with the given id, if it is registered.
func GetSensor(id string) (Sensor, bool) {
	return SensorMap.Get(id)
}

func NewSensor(config configuration.SensorConfig, i2cManager *hwio.I2CManager, adcReader *hwio.ADCReader) (Sensor, error) {
	if config.Sht4x != nil {
		return NewSht4xSensor(config, i2cManager)
	}

	if config.Thermistor != nil {
		return NewThermistorSensor(config, adcReader), nil
	}

	return nil, fmt.Errorf("no matching sensor type for sensor: %s", config.ID)
}
