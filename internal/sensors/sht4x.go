package sensors

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/util"
)

// SHT4x command bytes and measurement durations per precision mode,
// from the Sensirion datasheet. Higher precision means a longer
// sensor-internal measurement.
const (
	sht4xCmdMeasureHigh   = 0xFD
	sht4xCmdMeasureMedium = 0xF6
	sht4xCmdMeasureLow    = 0xE0
	sht4xCmdSoftReset     = 0x94
	sht4xCmdReadSerial    = 0x89

	// measurement frame: temperature word, CRC, humidity word, CRC
	sht4xFrameLen = 6
)

type sht4xMode struct {
	command byte
	delay   time.Duration
}

var sht4xModes = map[string]sht4xMode{
	configuration.PrecisionHigh:   {command: sht4xCmdMeasureHigh, delay: 10 * time.Millisecond},
	configuration.PrecisionMedium: {command: sht4xCmdMeasureMedium, delay: 5 * time.Millisecond},
	configuration.PrecisionLow:    {command: sht4xCmdMeasureLow, delay: 2 * time.Millisecond},
}

type Sht4xSensor struct {
	Config configuration.SensorConfig

	manager *hwio.I2CManager
	mode    sht4xMode

	avgMu     sync.Mutex
	movingAvg float64
}

func NewSht4xSensor(config configuration.SensorConfig, manager *hwio.I2CManager) (*Sht4xSensor, error) {
	mode, ok := sht4xModes[config.Sht4x.Precision]
	if !ok {
		return nil, fmt.Errorf("sensor %s: unknown precision mode '%s'", config.ID, config.Sht4x.Precision)
	}
	return &Sht4xSensor{
		Config:  config,
		manager: manager,
		mode:    mode,
	}, nil
}

func (sensor *Sht4xSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *Sht4xSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *Sht4xSensor) Measure() (Measurement, error) {
	sht4x := sensor.Config.Sht4x
	frame, err := sensor.manager.Transact(
		sht4x.I2CChannel,
		sht4x.I2CAddress,
		[]byte{sensor.mode.command},
		sensor.mode.delay,
		sht4xFrameLen,
	)
	if err != nil {
		return Measurement{}, err
	}

	rawTemp, rawHum, err := decodeSht4xFrame(frame)
	if err != nil {
		return Measurement{}, fmt.Errorf("sensor %s: %w", sensor.Config.ID, err)
	}

	return Measurement{
		Celsius:     sht4xCelsius(rawTemp),
		Humidity:    sht4xHumidity(rawHum),
		HasHumidity: true,
	}, nil
}

func (sensor *Sht4xSensor) MeasurementLatency() time.Duration {
	// measurement delay plus a generous allowance for the two bus
	// transfers and the single retry the channel manager may perform
	return 2*sensor.mode.delay + 10*time.Millisecond
}

// Reset performs a soft reset of the device.
func (sensor *Sht4xSensor) Reset() error {
	sht4x := sensor.Config.Sht4x
	_, err := sensor.manager.Transact(sht4x.I2CChannel, sht4x.I2CAddress, []byte{sht4xCmdSoftReset}, 1*time.Millisecond, 0)
	return err
}

// Serial reads the unique serial number of the device.
func (sensor *Sht4xSensor) Serial() (uint32, error) {
	sht4x := sensor.Config.Sht4x
	raw, err := sensor.manager.Transact(sht4x.I2CChannel, sht4x.I2CAddress, []byte{sht4xCmdReadSerial}, 10*time.Millisecond, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(raw), nil
}

func (sensor *Sht4xSensor) GetMovingAvg() (avg float64) {
	sensor.avgMu.Lock()
	defer sensor.avgMu.Unlock()
	return sensor.movingAvg
}

func (sensor *Sht4xSensor) SetMovingAvg(avg float64) {
	sensor.avgMu.Lock()
	defer sensor.avgMu.Unlock()
	sensor.movingAvg = avg
}

// decodeSht4xFrame validates both CRCs of a measurement frame and
// returns the raw temperature and humidity words. A failed checksum is
// a malformed payload, reported as a fault for this cycle.
func decodeSht4xFrame(frame []byte) (rawTemp uint16, rawHum uint16, err error) {
	if len(frame) != sht4xFrameLen {
		return 0, 0, fmt.Errorf("unexpected frame length %d", len(frame))
	}

	rawTemp = binary.BigEndian.Uint16(frame[0:2])
	if util.CRC8(frame[0:2]) != frame[2] {
		return 0, 0, fmt.Errorf("temperature checksum mismatch")
	}
	rawHum = binary.BigEndian.Uint16(frame[3:5])
	if util.CRC8(frame[3:5]) != frame[5] {
		return 0, 0, fmt.Errorf("humidity checksum mismatch")
	}
	return rawTemp, rawHum, nil
}

// sht4xCelsius converts a raw temperature word to °C per datasheet.
func sht4xCelsius(raw uint16) float64 {
	return (float64(raw)*175.0)/65535.0 - 45.0
}

// sht4xHumidity converts a raw humidity word to %RH per datasheet.
func sht4xHumidity(raw uint16) float64 {
	return (float64(raw)*125.0)/65535.0 - 6.0
}
