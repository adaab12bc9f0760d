package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/looplab/tarjan"
	"golang.org/x/exp/slices"
)

// Platform resource caps. The target hardware exposes two I2C buses,
// a four channel ADC and four PWM capable outputs.
const (
	MaxI2CChannels = 2
	MaxAdcChannels = 4
	MaxFans        = 4
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

// ValidateConfig checks all topology invariants of the given configuration.
// It never mutates the configuration: a rejected document leaves the
// previously active one in place.
func ValidateConfig(config *Configuration) error {
	return validateConfig(config)
}

func validateConfig(config *Configuration) error {
	err := validateSensors(config)
	if err != nil {
		return err
	}
	err = validateCurves(config)
	if err != nil {
		return err
	}
	return validateFans(config)
}

func validateSensors(config *Configuration) error {
	usedI2CChannels := map[int]string{}
	usedAdcChannels := map[int]string{}
	sensorIds := map[string]bool{}

	for _, sensorConfig := range config.Sensors {
		if len(sensorConfig.ID) <= 0 {
			return errors.New("Sensor without id found, every sensor needs a unique id")
		}
		if sensorIds[sensorConfig.ID] {
			return errors.New(fmt.Sprintf("Sensor %s: duplicate sensor id", sensorConfig.ID))
		}
		sensorIds[sensorConfig.ID] = true

		subConfigs := 0
		if sensorConfig.Sht4x != nil {
			subConfigs++
		}
		if sensorConfig.Thermistor != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Sensor %s: only one sensor type can be used per sensor definition block", sensorConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: sub-configuration for sensor is missing, use one of: sht4x | thermistor", sensorConfig.ID))
		}

		if !isSensorConfigInUse(sensorConfig, config.Curves) {
			ui.Warning("Unused sensor configuration: %s", sensorConfig.ID)
		}

		if sensorConfig.Sht4x != nil {
			sht4x := sensorConfig.Sht4x
			if sht4x.I2CChannel < 0 || sht4x.I2CChannel >= MaxI2CChannels {
				return errors.New(fmt.Sprintf("Sensor %s: invalid i2c channel %d, must be in [0..%d]", sensorConfig.ID, sht4x.I2CChannel, MaxI2CChannels-1))
			}
			if other, taken := usedI2CChannels[sht4x.I2CChannel]; taken {
				// without a multiplexer two sensors with the same fixed
				// address cannot share a bus
				return errors.New(fmt.Sprintf("Sensor %s: i2c channel %d already used by sensor %s", sensorConfig.ID, sht4x.I2CChannel, other))
			}
			usedI2CChannels[sht4x.I2CChannel] = sensorConfig.ID

			supportedPrecisions := []string{PrecisionLow, PrecisionMedium, PrecisionHigh}
			if !slices.Contains(supportedPrecisions, sht4x.Precision) {
				return errors.New(fmt.Sprintf("Sensor %s: unsupported precision '%s', use one of: %s", sensorConfig.ID, sht4x.Precision, strings.Join(supportedPrecisions, " | ")))
			}
		}

		if sensorConfig.Thermistor != nil {
			thermistor := sensorConfig.Thermistor
			if thermistor.AdcChannel < 0 || thermistor.AdcChannel >= MaxAdcChannels {
				return errors.New(fmt.Sprintf("Sensor %s: invalid adc channel %d, must be in [0..%d]", sensorConfig.ID, thermistor.AdcChannel, MaxAdcChannels-1))
			}
			if other, taken := usedAdcChannels[thermistor.AdcChannel]; taken {
				return errors.New(fmt.Sprintf("Sensor %s: adc channel %d already used by sensor %s", sensorConfig.ID, thermistor.AdcChannel, other))
			}
			usedAdcChannels[thermistor.AdcChannel] = sensorConfig.ID

			if thermistor.Beta <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: beta coefficient must be > 0", sensorConfig.ID))
			}
			if thermistor.NominalResistance <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: nominal resistance must be > 0", sensorConfig.ID))
			}
			if thermistor.ReferenceResistance <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: reference resistance must be > 0", sensorConfig.ID))
			}
		}
	}

	return nil
}

func isSensorConfigInUse(config SensorConfig, curves []CurveConfig) bool {
	for _, curveConfig := range curves {
		if curveConfig.Function != nil {
			// function curves reference curves, not sensors
			continue
		}
		if curveConfig.Linear != nil && curveConfig.Linear.Sensor == config.ID {
			return true
		}
		if curveConfig.Logarithmic != nil && curveConfig.Logarithmic.Sensor == config.ID {
			return true
		}
		if curveConfig.Exponential != nil && curveConfig.Exponential.Sensor == config.ID {
			return true
		}
	}

	return false
}

func validateCurves(config *Configuration) error {
	graph := make(map[interface{}][]interface{})
	curveIds := map[string]bool{}

	for _, curveConfig := range config.Curves {
		if len(curveConfig.ID) <= 0 {
			return errors.New("Curve without id found, every curve needs a unique id")
		}
		if curveIds[curveConfig.ID] {
			return errors.New(fmt.Sprintf("Curve %s: duplicate curve id", curveConfig.ID))
		}
		curveIds[curveConfig.ID] = true

		subConfigs := 0
		if curveConfig.Linear != nil {
			subConfigs++
		}
		if curveConfig.Logarithmic != nil {
			subConfigs++
		}
		if curveConfig.Exponential != nil {
			subConfigs++
		}
		if curveConfig.Function != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Curve %s: only one curve type can be used per curve definition block", curveConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Curve %s: sub-configuration for curve is missing, use one of: linear | logarithmic | exponential | function", curveConfig.ID))
		}

		if !isCurveConfigInUse(curveConfig, config.Curves, config.Fans) {
			ui.Warning("Unused curve configuration: %s", curveConfig.ID)
		}

		if curveConfig.Function != nil {
			supportedTypes := []string{FunctionMinimum, FunctionMaximum, FunctionAverage}
			if !slices.Contains(supportedTypes, curveConfig.Function.Type) {
				return errors.New(fmt.Sprintf("Curve %s: unsupported function type '%s', use one of: %s", curveConfig.ID, curveConfig.Function.Type, strings.Join(supportedTypes, " | ")))
			}
			if len(curveConfig.Function.Curves) <= 0 {
				return errors.New(fmt.Sprintf("Curve %s: function curve references no curves", curveConfig.ID))
			}

			var connections []interface{}
			for _, curve := range curveConfig.Function.Curves {
				if curve == curveConfig.ID {
					return errors.New(fmt.Sprintf("Curve %s: a curve cannot reference itself", curveConfig.ID))
				}
				if !curveIdExists(curve, config) {
					return errors.New(fmt.Sprintf("Curve %s: no curve definition with id '%s' found", curveConfig.ID, curve))
				}
				connections = append(connections, curve)
			}
			graph[curveConfig.ID] = connections
		}

		if err := validateShape(curveConfig, config); err != nil {
			return err
		}
	}

	return validateNoLoops(graph)
}

func validateShape(curveConfig CurveConfig, config *Configuration) error {
	var sensor string
	var min, max float64
	var minDuty int

	switch {
	case curveConfig.Linear != nil:
		linear := curveConfig.Linear
		if linear.Steps != nil {
			if len(linear.Steps) < 2 {
				return errors.New(fmt.Sprintf("Curve %s: at least two steps are required", curveConfig.ID))
			}
			for temp, duty := range linear.Steps {
				if duty < 0 || duty > 100 {
					return errors.New(fmt.Sprintf("Curve %s: step %d -> %d is outside [0..100]", curveConfig.ID, temp, duty))
				}
			}
		}
		sensor, min, max, minDuty = linear.Sensor, linear.Min, linear.Max, linear.MinDuty
	case curveConfig.Logarithmic != nil:
		logarithmic := curveConfig.Logarithmic
		if logarithmic.Min <= 0 {
			// the shape divides by log10(max/min)
			return errors.New(fmt.Sprintf("Curve %s: logarithmic curves require min > 0", curveConfig.ID))
		}
		sensor, min, max, minDuty = logarithmic.Sensor, logarithmic.Min, logarithmic.Max, logarithmic.MinDuty
	case curveConfig.Exponential != nil:
		exponential := curveConfig.Exponential
		sensor, min, max, minDuty = exponential.Sensor, exponential.Min, exponential.Max, exponential.MinDuty
	default:
		return nil
	}

	if len(sensor) <= 0 {
		return errors.New(fmt.Sprintf("Curve %s: Missing sensorId", curveConfig.ID))
	}
	if !sensorIdExists(sensor, config) {
		return errors.New(fmt.Sprintf("Curve %s: no sensor definition with id '%s' found", curveConfig.ID, sensor))
	}
	if curveConfig.Linear == nil || curveConfig.Linear.Steps == nil {
		if min >= max {
			return errors.New(fmt.Sprintf("Curve %s: min temp (%.1f) must be strictly below max temp (%.1f)", curveConfig.ID, min, max))
		}
	}
	if minDuty < 1 || minDuty > 100 {
		return errors.New(fmt.Sprintf("Curve %s: minDuty must be in [1..100]", curveConfig.ID))
	}

	return nil
}

func sensorIdExists(sensorId string, config *Configuration) bool {
	for _, sensor := range config.Sensors {
		if sensor.ID == sensorId {
			return true
		}
	}

	return false
}

func curveIdExists(curveId string, config *Configuration) bool {
	for _, curve := range config.Curves {
		if curve.ID == curveId {
			return true
		}
	}

	return false
}

func validateNoLoops(graph map[interface{}][]interface{}) error {
	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			return errors.New(fmt.Sprintf("You have created a curve dependency cycle: %v", items))
		}
	}
	return nil
}

func isCurveConfigInUse(config CurveConfig, curves []CurveConfig, fans []FanConfig) bool {
	for _, curveConfig := range curves {
		if curveConfig.Function != nil {
			if slices.Contains(curveConfig.Function.Curves, config.ID) {
				return true
			}
		}
	}

	for _, fanConfig := range fans {
		if fanConfig.Curve == config.ID {
			return true
		}
	}

	return false
}

func validateFans(config *Configuration) error {
	if len(config.Fans) > MaxFans {
		return errors.New(fmt.Sprintf("Too many fans: %d configured, the platform supports at most %d PWM outputs", len(config.Fans), MaxFans))
	}

	usedPins := map[int]string{}
	fanIds := map[string]bool{}

	for _, fanConfig := range config.Fans {
		if len(fanConfig.ID) <= 0 {
			return errors.New("Fan without id found, every fan needs a unique id")
		}
		if fanIds[fanConfig.ID] {
			return errors.New(fmt.Sprintf("Fan %s: duplicate fan id", fanConfig.ID))
		}
		fanIds[fanConfig.ID] = true

		if fanConfig.Pin < 0 {
			return errors.New(fmt.Sprintf("Fan %s: invalid pin %d", fanConfig.ID, fanConfig.Pin))
		}
		if other, taken := usedPins[fanConfig.Pin]; taken {
			return errors.New(fmt.Sprintf("Fan %s: pin %d already used by fan %s", fanConfig.ID, fanConfig.Pin, other))
		}
		usedPins[fanConfig.Pin] = fanConfig.ID

		if len(fanConfig.Curve) <= 0 {
			return errors.New(fmt.Sprintf("Fan %s: missing curve definition in configuration entry", fanConfig.ID))
		}
		if !curveIdExists(fanConfig.Curve, config) {
			return errors.New(fmt.Sprintf("Fan %s: no curve definition with id '%s' found", fanConfig.ID, fanConfig.Curve))
		}
	}

	return nil
}
