package curves

import (
	"fmt"
	"math"
	"sync"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/Mosical/pico-venti/internal/util"
)

// ExponentialSpeedCurve stays slow through most of the range and ramps
// up sharply as the temperature approaches the maximum.
type ExponentialSpeedCurve struct {
	Config configuration.CurveConfig `json:"config"`

	valueMu sync.Mutex
	value   int
}

func (c *ExponentialSpeedCurve) GetId() string {
	return c.Config.ID
}

func (c *ExponentialSpeedCurve) MinDuty() int {
	return c.Config.Exponential.MinDuty
}

func (c *ExponentialSpeedCurve) Evaluate() (value int, err error) {
	sensor, ok := sensors.GetSensor(c.Config.Exponential.Sensor)
	if !ok {
		return 0, fmt.Errorf("curve %s: sensor '%s' not found", c.Config.ID, c.Config.Exponential.Sensor)
	}
	avgTemp := sensor.GetMovingAvg()

	value = c.ValueAt(avgTemp)
	ui.Debug("Evaluating curve '%s'. Sensor '%s' temp '%.1f°'. Desired duty: %d", c.Config.ID, sensor.GetId(), avgTemp, value)
	c.setValue(value)
	return value, nil
}

// ValueAt maps temperature on a linear x-axis to a logarithmic duty
// y-axis:
//
//	duty = minDuty * 10^(p * log10(100/minDuty))  with p in [0..1]
func (c *ExponentialSpeedCurve) ValueAt(celsius float64) int {
	exponential := c.Config.Exponential

	if celsius <= exponential.Min {
		return 0
	}
	if celsius >= exponential.Max {
		return 100
	}

	ratio := util.Ratio(celsius, exponential.Min, exponential.Max)
	exponent := ratio * math.Log10(100/float64(exponential.MinDuty))
	duty := float64(exponential.MinDuty) * math.Pow(10, exponent)
	return int(math.Round(duty))
}

func (c *ExponentialSpeedCurve) setValue(value int) {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	c.value = value
}

func (c *ExponentialSpeedCurve) CurrentValue() int {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	return c.value
}
