package curves

import (
	"fmt"
	"math"
	"sync"

	"github.com/Mosical/pico-venti/internal/configuration"
)

// FunctionSpeedCurve combines the values of other curves, so one fan
// can follow several temperature sources at once.
type FunctionSpeedCurve struct {
	Config configuration.CurveConfig `json:"config"`

	valueMu sync.Mutex
	value   int
}

func (c *FunctionSpeedCurve) GetId() string {
	return c.Config.ID
}

func (c *FunctionSpeedCurve) MinDuty() int {
	minDuty := 100
	for _, curveId := range c.Config.Function.Curves {
		curve, ok := GetSpeedCurve(curveId)
		if !ok {
			continue
		}
		if curve.MinDuty() < minDuty {
			minDuty = curve.MinDuty()
		}
	}
	return minDuty
}

func (c *FunctionSpeedCurve) Evaluate() (value int, err error) {
	var values []int
	for _, curveId := range c.Config.Function.Curves {
		curve, ok := GetSpeedCurve(curveId)
		if !ok {
			return 0, fmt.Errorf("curve %s: curve '%s' not found", c.Config.ID, curveId)
		}
		v, err := curve.Evaluate()
		if err != nil {
			return 0, err
		}
		values = append(values, v)
	}

	switch c.Config.Function.Type {
	case configuration.FunctionMinimum:
		min := 100.0
		for _, v := range values {
			min = math.Min(min, float64(v))
		}
		value = int(min)
	case configuration.FunctionMaximum:
		max := 0.0
		for _, v := range values {
			max = math.Max(max, float64(v))
		}
		value = int(max)
	case configuration.FunctionAverage:
		total := 0
		for _, v := range values {
			total += v
		}
		value = total / len(values)
	default:
		return 0, fmt.Errorf("curve %s: unknown function type: %s", c.Config.ID, c.Config.Function.Type)
	}

	c.setValue(value)
	return value, nil
}

func (c *FunctionSpeedCurve) setValue(value int) {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	c.value = value
}

func (c *FunctionSpeedCurve) CurrentValue() int {
	c.valueMu.Lock()
	defer c.valueMu.Unlock()
	return c.value
}
