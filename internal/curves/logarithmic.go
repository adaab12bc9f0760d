package curves

import (
	"fmt"
	"math"
	"sync"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/Mosical/pico-venti/internal/ui"
)

// LogarithmicSpeedCurve ramps quickly just above the minimum
// temperature and flattens towards the maximum.
type LogarithmicSpeedCurve struct {
	Config configuration.CurveConfig `json:"config"`

	valueMu sync.Mutex
	value   int
}

func (c *LogarithmicSpeedCurve) GetId() string {
	return c.Config.ID
}

func (c *LogarithmicSpeedCurve) MinDuty() int {
	return c.Config.Logarithmic.MinDuty
}

func (c *LogarithmicSpeedCurve) Evaluate() (value int, err error) {
	sensor, ok := sensors.GetSensor(c.Config.Logarithmic.Sensor)
	if !ok {
		return 0, fmt.Errorf("curve %s: sensor '%s' not found", c.Config.ID, c.Config.Logarithmic.Sensor)
	}
	avgTemp := sensor.GetMovingAvg()

	value = c.ValueAt(avgTemp)
	ui.Debug("Evaluating curve '%s'. Sensor '%s' temp '%.1f°'. Desired duty: %d", c.Config.ID, sensor.GetId(), avgTemp, value)
	c.setValue(value)
	return value, nil
}

// ValueAt maps temperature on a logarithmic x-axis to a linear duty
// y-axis:
//
//	duty = (100 - minDuty) * (log10(t/min) / log10(max/min)) + minDuty
func (c *LogarithmicSpeedCurve) ValueAt(celsius float64) int {
	logarithmic := c.Config.Logarithmic

	if celsius <= logarithmic.Min {
		return 0
	}
	if celsius >= logarithmic.Max {
		return 100
	}

	span := float64(100 - logarithmic.MinDuty)
	ratio := math.Log10(celsius/logarithmic.Min) / math.Log10(logarithmic.Max/logarithmic.Min)
	duty := span*ratio + float64(logarithmic.MinDuty)
	return int(math.Round(duty))
}

func (c *LogarithmicSpeedCurve) setValue(value int) {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	c.value = value
}

func (c *LogarithmicSpeedCurve) CurrentValue() int {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	return c.value
}
