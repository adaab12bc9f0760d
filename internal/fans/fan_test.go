package fans

import (
	"testing"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/stretchr/testify/assert"
)

func createTestFan(t *testing.T, zeroRpm bool) (Fan, *platform.SimPlatform) {
	sim := platform.NewSimPlatform()
	fan, err := NewFan(configuration.FanConfig{
		ID:      "fan",
		Pin:     15,
		Curve:   "curve",
		ZeroRpm: zeroRpm,
	}, sim, 25000)
	assert.NoError(t, err)
	return fan, sim
}

func TestQuantizeDuty(t *testing.T) {
	assert.Equal(t, uint16(0), QuantizeDuty(0))
	assert.Equal(t, uint16(platform.PwmMaxValue), QuantizeDuty(100))
	// 50% of 65535 is 32767.5, rounded up
	assert.Equal(t, uint16(32768), QuantizeDuty(50))
}

func TestSetDutyDrivesOutput(t *testing.T) {
	// GIVEN
	fan, sim := createTestFan(t, true)

	// WHEN
	err := fan.SetDuty(65)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 65, fan.GetDuty())
	assert.Equal(t, QuantizeDuty(65), sim.Duty(15))
}

func TestSetDutyOutOfRangePanics(t *testing.T) {
	// GIVEN
	fan, _ := createTestFan(t, true)

	// WHEN / THEN
	assert.Panics(t, func() { _ = fan.SetDuty(-1) })
	assert.Panics(t, func() { _ = fan.SetDuty(101) })
}

func TestShouldNeverStopFollowsZeroRpmSetting(t *testing.T) {
	stoppable, _ := createTestFan(t, true)
	alwaysOn, _ := createTestFan(t, false)

	assert.False(t, stoppable.ShouldNeverStop())
	assert.True(t, alwaysOn.ShouldNeverStop())
}

func TestStateReflectsLastApplication(t *testing.T) {
	// GIVEN
	fan, _ := createTestFan(t, true)

	// WHEN
	err := fan.SetDuty(42)

	// THEN
	assert.NoError(t, err)
	state := fan.State()
	assert.Equal(t, "fan", state.FanID)
	assert.Equal(t, 42, state.Duty)
	assert.False(t, state.LastAppliedAt.IsZero())
}
