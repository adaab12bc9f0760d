package curves

import (
	"fmt"

	"github.com/Mosical/pico-venti/internal/configuration"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	SpeedCurveMap = cmap.New[SpeedCurve]()
)

type SpeedCurve interface {
	GetId() string

	// Evaluate calculates the current duty demand of the curve as a value
	// in [0..100]. A result of 0 means the temperature is at or below the
	// curve's minimum; whether that stops the fan or floors it at its
	// minimum running duty is decided by the fan's zero-RPM setting.
	Evaluate() (value int, err error)

	// MinDuty returns the lowest running duty the curve yields just above
	// its minimum temperature.
	MinDuty() int

	// CurrentValue returns the result of the last Evaluate call.
	CurrentValue() int
}

// GetSpeedCurve returns the curve with the given id, if it is registered.
func GetSpeedCurve(id string) (SpeedCurve, bool) {
	return SpeedCurveMap.Get(id)
}

func NewSpeedCurve(config configuration.CurveConfig) (SpeedCurve, error) {
	if config.Linear != nil {
		return &LinearSpeedCurve{Config: config}, nil
	}

	if config.Logarithmic != nil {
		return &LogarithmicSpeedCurve{Config: config}, nil
	}

	if config.Exponential != nil {
		return &ExponentialSpeedCurve{Config: config}, nil
	}

	if config.Function != nil {
		return &FunctionSpeedCurve{Config: config}, nil
	}

	return nil, fmt.Errorf("no matching curve type for curve: %s", config.ID)
}

// SensorIds returns the ids of all sensors feeding the given curve,
// following function curve references transitively. Validation
// guarantees the reference graph is acyclic and resolvable.
func SensorIds(curveId string, config *configuration.Configuration) []string {
	seen := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		for _, curveConfig := range config.Curves {
			if curveConfig.ID != id {
				continue
			}
			switch {
			case curveConfig.Linear != nil:
				seen[curveConfig.Linear.Sensor] = true
			case curveConfig.Logarithmic != nil:
				seen[curveConfig.Logarithmic.Sensor] = true
			case curveConfig.Exponential != nil:
				seen[curveConfig.Exponential.Sensor] = true
			case curveConfig.Function != nil:
				for _, child := range curveConfig.Function.Curves {
					walk(child)
				}
			}
		}
	}
	walk(curveId)

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	return result
}
