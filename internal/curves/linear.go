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

type LinearSpeedCurve struct {
	Config configuration.CurveConfig `json:"config"`

	valueMu sync.Mutex
	value   int
}

func (c *LinearSpeedCurve) GetId() string {
	return c.Config.ID
}

func (c *LinearSpeedCurve) MinDuty() int {
	return c.Config.Linear.MinDuty
}

func (c *LinearSpeedCurve) Evaluate() (value int, err error) {
	sensor, ok := sensors.GetSensor(c.Config.Linear.Sensor)
	if !ok {
		return 0, fmt.Errorf("curve %s: sensor '%s' not found", c.Config.ID, c.Config.Linear.Sensor)
	}
	avgTemp := sensor.GetMovingAvg()

	value = c.ValueAt(avgTemp)
	ui.Debug("Evaluating curve '%s'. Sensor '%s' temp '%.1f°'. Desired duty: %d", c.Config.ID, sensor.GetId(), avgTemp, value)
	c.setValue(value)
	return value, nil
}

// ValueAt returns the duty demand of the curve at the given temperature.
func (c *LinearSpeedCurve) ValueAt(celsius float64) int {
	linear := c.Config.Linear

	if linear.Steps != nil {
		steps := make(map[int]float64, len(linear.Steps))
		for temp, duty := range linear.Steps {
			steps[temp] = float64(duty)
		}
		interpolated := util.CalculateInterpolatedCurveValue(steps, util.InterpolationTypeLinear, celsius)
		return int(util.Coerce(math.Round(interpolated), 0, 100))
	}

	if celsius <= linear.Min {
		return 0
	}
	if celsius >= linear.Max {
		return 100
	}

	ratio := util.Ratio(celsius, linear.Min, linear.Max)
	duty := float64(linear.MinDuty) + ratio*float64(100-linear.MinDuty)
	return int(math.Round(duty))
}

func (c *LinearSpeedCurve) setValue(value int) {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	c.value = value
}

func (c *LinearSpeedCurve) CurrentValue() int {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	return c.value
}
