package curves

import (
	"testing"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/stretchr/testify/assert"
)

// helper function to create a linear curve configuration
func createLinearCurveConfig(
	id string,
	sensorId string,
	minTemp float64,
	maxTemp float64,
	minDuty int,
) (curve configuration.CurveConfig) {
	curve = configuration.CurveConfig{
		ID: id,
		Linear: &configuration.LinearCurveConfig{
			Sensor:  sensorId,
			Min:     minTemp,
			Max:     maxTemp,
			MinDuty: minDuty,
		},
	}
	return curve
}

// helper function to create a linear curve configuration with steps
func createLinearCurveConfigWithSteps(
	id string,
	sensorId string,
	steps map[int]int,
) (curve configuration.CurveConfig) {
	curve = configuration.CurveConfig{
		ID: id,
		Linear: &configuration.LinearCurveConfig{
			Sensor: sensorId,
			Steps:  steps,
		},
	}
	return curve
}

// helper function to create a function curve configuration
func createFunctionCurveConfig(
	id string,
	function string,
	curveIds []string,
) (curve configuration.CurveConfig) {
	curve = configuration.CurveConfig{
		ID: id,
		Function: &configuration.FunctionCurveConfig{
			Type:   function,
			Curves: curveIds,
		},
	}
	return curve
}

type MockSensor struct {
	ID        string
	MovingAvg float64
}

func (sensor *MockSensor) GetId() string {
	return sensor.ID
}

func (sensor *MockSensor) GetConfig() configuration.SensorConfig {
	panic("not implemented")
}

func (sensor *MockSensor) Measure() (sensors.Measurement, error) {
	return sensors.Measurement{Celsius: sensor.MovingAvg}, nil
}

func (sensor *MockSensor) MeasurementLatency() time.Duration {
	return time.Millisecond
}

func (sensor *MockSensor) GetMovingAvg() (avg float64) {
	return sensor.MovingAvg
}

func (sensor *MockSensor) SetMovingAvg(avg float64) {
	sensor.MovingAvg = avg
}

func registerSensor(sensor sensors.Sensor) {
	sensors.SensorMap.Set(sensor.GetId(), sensor)
}

func TestLinearCurveMidpoint(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "linear_mid_sensor",
		MovingAvg: 45,
	}
	registerSensor(s)

	curveConfig := createLinearCurveConfig(
		"linear_mid_curve",
		s.GetId(),
		30, 60, 30,
	)
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	result, err := curve.Evaluate()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 65, result)
	assert.Equal(t, 65, curve.CurrentValue())
}

func TestLinearCurveAtOrBelowMinIsZero(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "linear_min_sensor",
		MovingAvg: 30,
	}
	registerSensor(s)

	curveConfig := createLinearCurveConfig(
		"linear_min_curve",
		s.GetId(),
		30, 60, 30,
	)
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	atMin, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(12.5)
	belowMin, err := curve.Evaluate()
	assert.NoError(t, err)

	// THEN
	assert.Equal(t, 0, atMin)
	assert.Equal(t, 0, belowMin)
}

func TestLinearCurveJustAboveMinStartsAtMinDuty(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "linear_lift_sensor",
		MovingAvg: 30.1,
	}
	registerSensor(s)

	curveConfig := createLinearCurveConfig(
		"linear_lift_curve",
		s.GetId(),
		30, 60, 30,
	)
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	result, err := curve.Evaluate()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 30, result)
	assert.Equal(t, 30, curve.MinDuty())
}

func TestLinearCurveAtOrAboveMaxIsFull(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "linear_max_sensor",
		MovingAvg: 60,
	}
	registerSensor(s)

	curveConfig := createLinearCurveConfig(
		"linear_max_curve",
		s.GetId(),
		30, 60, 30,
	)
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	atMax, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(85)
	aboveMax, err := curve.Evaluate()
	assert.NoError(t, err)

	// THEN
	assert.Equal(t, 100, atMax)
	assert.Equal(t, 100, aboveMax)
}

func TestLinearCurveWithSteps(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "linear_steps_sensor",
		MovingAvg: 55,
	}
	registerSensor(s)

	curveConfig := createLinearCurveConfigWithSteps(
		"linear_steps_curve",
		s.GetId(),
		map[int]int{
			40: 0,
			50: 30,
			60: 100,
		},
	)
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	result, err := curve.Evaluate()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 65, result)
}

func TestLogarithmicCurve(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "log_sensor",
		MovingAvg: 45,
	}
	registerSensor(s)

	curveConfig := configuration.CurveConfig{
		ID: "log_curve",
		Logarithmic: &configuration.LogarithmicCurveConfig{
			Sensor:  s.GetId(),
			Min:     30,
			Max:     60,
			MinDuty: 30,
		},
	}
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	midpoint, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(30)
	atMin, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(60)
	atMax, err := curve.Evaluate()
	assert.NoError(t, err)

	// THEN
	// log10(45/30)/log10(60/30) = 0.585, 30 + 0.585*70 = 70.95
	assert.Equal(t, 71, midpoint)
	assert.Equal(t, 0, atMin)
	assert.Equal(t, 100, atMax)
}

func TestExponentialCurve(t *testing.T) {
	// GIVEN
	s := &MockSensor{
		ID:        "exp_sensor",
		MovingAvg: 45,
	}
	registerSensor(s)

	curveConfig := configuration.CurveConfig{
		ID: "exp_curve",
		Exponential: &configuration.ExponentialCurveConfig{
			Sensor:  s.GetId(),
			Min:     30,
			Max:     60,
			MinDuty: 30,
		},
	}
	curve, err := NewSpeedCurve(curveConfig)
	assert.NoError(t, err)

	// WHEN
	midpoint, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(30)
	atMin, err := curve.Evaluate()
	assert.NoError(t, err)

	s.SetMovingAvg(60)
	atMax, err := curve.Evaluate()
	assert.NoError(t, err)

	// THEN
	// 30 * 10^(0.5 * log10(100/30)) = 54.77, the exponential shape stays
	// below the linear midpoint of 65
	assert.Equal(t, 55, midpoint)
	assert.Equal(t, 0, atMin)
	assert.Equal(t, 100, atMax)
}

func TestFunctionCurveMinimum(t *testing.T) {
	testFunctionCurve(t, configuration.FunctionMinimum, 42, 88, 42)
}

func TestFunctionCurveMaximum(t *testing.T) {
	testFunctionCurve(t, configuration.FunctionMaximum, 42, 88, 88)
}

func TestFunctionCurveAverage(t *testing.T) {
	testFunctionCurve(t, configuration.FunctionAverage, 42, 88, 65)
}

func testFunctionCurve(t *testing.T, function string, temp1 float64, temp2 float64, expected int) {
	// GIVEN
	s1 := &MockSensor{
		ID:        function + "_sensor_1",
		MovingAvg: temp1,
	}
	registerSensor(s1)

	s2 := &MockSensor{
		ID:        function + "_sensor_2",
		MovingAvg: temp2,
	}
	registerSensor(s2)

	// steps mapping temperature 1:1 to duty keeps the expectations obvious
	steps := map[int]int{0: 0, 100: 100}

	c1, err := NewSpeedCurve(createLinearCurveConfigWithSteps(function+"_curve_1", s1.GetId(), steps))
	assert.NoError(t, err)
	SpeedCurveMap.Set(c1.GetId(), c1)

	c2, err := NewSpeedCurve(createLinearCurveConfigWithSteps(function+"_curve_2", s2.GetId(), steps))
	assert.NoError(t, err)
	SpeedCurveMap.Set(c2.GetId(), c2)

	functionCurveConfig := createFunctionCurveConfig(
		function+"_function_curve",
		function,
		[]string{c1.GetId(), c2.GetId()},
	)
	functionCurve, err := NewSpeedCurve(functionCurveConfig)
	assert.NoError(t, err)

	// WHEN
	result, err := functionCurve.Evaluate()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestSensorIdsFollowsFunctionCurves(t *testing.T) {
	// GIVEN
	config := &configuration.Configuration{
		Curves: []configuration.CurveConfig{
			createLinearCurveConfig("ids_curve_1", "ids_sensor_1", 30, 60, 30),
			createLinearCurveConfig("ids_curve_2", "ids_sensor_2", 30, 60, 30),
			createFunctionCurveConfig("ids_function", configuration.FunctionMaximum, []string{"ids_curve_1", "ids_curve_2"}),
		},
	}

	// WHEN
	direct := SensorIds("ids_curve_1", config)
	transitive := SensorIds("ids_function", config)

	// THEN
	assert.ElementsMatch(t, []string{"ids_sensor_1"}, direct)
	assert.ElementsMatch(t, []string{"ids_sensor_1", "ids_sensor_2"}, transitive)
}
