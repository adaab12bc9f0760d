package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	assert.Equal(t, 5.0, Coerce(5, 0, 10))
	assert.Equal(t, 0.0, Coerce(-3, 0, 10))
	assert.Equal(t, 10.0, Coerce(42, 0, 10))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.5, Ratio(45, 30, 60))
	assert.Equal(t, 0.0, Ratio(30, 30, 60))
	assert.Equal(t, 1.0, Ratio(60, 30, 60))
}

func TestUpdateSimpleMovingAvg(t *testing.T) {
	assert.InDelta(t, 42, UpdateSimpleMovingAvg(40, 5, 50), 0.001)
	// a window of 1 follows the new value directly
	assert.InDelta(t, 50, UpdateSimpleMovingAvg(40, 1, 50), 0.001)
}

func TestCalculateInterpolatedCurveValue(t *testing.T) {
	steps := map[int]float64{
		40: 0,
		50: 30,
		60: 100,
	}

	// below the smallest step clamps to its value
	assert.Equal(t, 0.0, CalculateInterpolatedCurveValue(steps, InterpolationTypeLinear, 20))
	// exact steps return their value
	assert.Equal(t, 30.0, CalculateInterpolatedCurveValue(steps, InterpolationTypeLinear, 50))
	// in between interpolates linearly
	assert.Equal(t, 65.0, CalculateInterpolatedCurveValue(steps, InterpolationTypeLinear, 55))
	// above the largest step clamps to its value
	assert.Equal(t, 100.0, CalculateInterpolatedCurveValue(steps, InterpolationTypeLinear, 90))
}
