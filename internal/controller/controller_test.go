package controller

import (
	"testing"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/stretchr/testify/assert"
)

func createTestConfig(zeroRpm bool, maxDutyChangePerCycle int) configuration.Configuration {
	return configuration.Configuration{
		Platform: configuration.PlatformConfig{
			Backend:      configuration.PlatformBackendSim,
			AdcSamples:   1,
			PwmFrequency: 25000,
		},
		Controller: configuration.ControllerConfig{
			CycleRate:             time.Second,
			FaultGraceCycles:      2,
			DutyDeadBand:          2,
			MaxDutyChangePerCycle: maxDutyChangePerCycle,
			// window of 1 makes the moving average follow the sensor
			// directly, keeping expectations exact
			TempRollingWindowSize: 1,
		},
		Sensors: []configuration.SensorConfig{
			{
				ID: "ambient",
				Sht4x: &configuration.Sht4xSensorConfig{
					I2CChannel: 0,
					I2CAddress: 0x44,
					Precision:  configuration.PrecisionLow,
				},
			},
		},
		Curves: []configuration.CurveConfig{
			{
				ID: "curve",
				Linear: &configuration.LinearCurveConfig{
					Sensor:  "ambient",
					Min:     30,
					Max:     60,
					MinDuty: 30,
				},
			},
		},
		Fans: []configuration.FanConfig{
			{
				ID:      "fan",
				Pin:     15,
				Curve:   "curve",
				ZeroRpm: zeroRpm,
			},
		},
	}
}

func createTestController(t *testing.T, config configuration.Configuration) (*Controller, *platform.SimPlatform, *platform.SimSht4x) {
	sim := platform.NewSimPlatform()
	device := sim.AddSht4x(0, 0x44)

	topology, err := BuildTopology(config, sim)
	assert.NoError(t, err)

	return NewController(topology), sim, device
}

func fanDuty(t *testing.T, ctl *Controller) int {
	snapshot := ctl.Snapshot()
	assert.NotNil(t, snapshot)
	return snapshot.Fans["fan"].Duty
}

func TestControllerDrivesFanFromCurve(t *testing.T) {
	// GIVEN
	ctl, sim, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)

	// WHEN
	ctl.Cycle()

	// THEN
	// 45° on a 30..60 curve with minDuty 30 yields 65%
	assert.Equal(t, 65, fanDuty(t, ctl))
	assert.Equal(t, fans.QuantizeDuty(65), sim.Duty(15))
}

func TestControllerRampLimitsDutyChange(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 10))
	device.SetEnvironment(45, 50)

	// WHEN / THEN
	ctl.Cycle()
	assert.Equal(t, 10, fanDuty(t, ctl))

	ctl.Cycle()
	assert.Equal(t, 20, fanDuty(t, ctl))

	ctl.Cycle()
	assert.Equal(t, 30, fanDuty(t, ctl))
}

func TestControllerFailsSafeImmediatelyWithoutPriorReading(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 10))
	device.FailNext(1000)

	// WHEN
	ctl.Cycle()

	// THEN
	// a sensor that never produced a valid value gives nothing to hold,
	// fail-safe duty ignores the ramp limit
	assert.Equal(t, 100, fanDuty(t, ctl))

	snapshot := ctl.Snapshot()
	assert.Equal(t, sensors.StatusFault, snapshot.Readings["ambient"].Status)
}

func TestControllerHoldsDutyDuringGraceThenFailsSafe(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)
	ctl.Cycle()
	assert.Equal(t, 65, fanDuty(t, ctl))

	// WHEN
	device.FailNext(1000)

	// THEN
	// two faulted cycles within the grace period hold the last duty
	ctl.Cycle()
	assert.Equal(t, 65, fanDuty(t, ctl))
	assert.Equal(t, sensors.StatusStale, ctl.Snapshot().Readings["ambient"].Status)

	ctl.Cycle()
	assert.Equal(t, 65, fanDuty(t, ctl))

	// the third faulted cycle exceeds the grace period
	ctl.Cycle()
	assert.Equal(t, 100, fanDuty(t, ctl))
}

func TestControllerRecoversAfterFault(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)
	ctl.Cycle()

	device.FailNext(1000)
	ctl.Cycle()
	ctl.Cycle()
	ctl.Cycle()
	assert.Equal(t, 100, fanDuty(t, ctl))

	// WHEN
	device.FailNext(0)
	ctl.Cycle()

	// THEN
	assert.Equal(t, 65, fanDuty(t, ctl))
	assert.Equal(t, sensors.StatusOk, ctl.Snapshot().Readings["ambient"].Status)
}

func TestControllerDeadBandSuppressesSmallChanges(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)
	ctl.Cycle()
	assert.Equal(t, 65, fanDuty(t, ctl))

	// WHEN
	// 45.5° would give 66%, inside the 2% dead-band around 65%
	device.SetEnvironment(45.5, 50)
	ctl.Cycle()
	suppressed := fanDuty(t, ctl)

	// 50° gives 77%, well outside the dead-band
	device.SetEnvironment(50, 50)
	ctl.Cycle()
	applied := fanDuty(t, ctl)

	// THEN
	assert.Equal(t, 65, suppressed)
	assert.Equal(t, 77, applied)
}

func TestControllerZeroRpmStopsFanAtOrBelowMin(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(20, 50)

	// WHEN
	ctl.Cycle()

	// THEN
	assert.Equal(t, 0, fanDuty(t, ctl))
}

func TestControllerZeroRpmStopsFanFromInsideDeadBand(t *testing.T) {
	// GIVEN
	// a curve that settles at a duty below the dead-band width
	config := createTestConfig(true, 0)
	config.Controller.DutyDeadBand = 5
	config.Curves[0].Linear.MinDuty = 1
	ctl, _, device := createTestController(t, config)

	device.SetEnvironment(30.3, 50)
	ctl.Cycle()
	assert.Equal(t, 2, fanDuty(t, ctl))

	// WHEN
	// the temperature drops to the curve minimum
	device.SetEnvironment(20, 50)
	ctl.Cycle()

	// THEN
	// the fan stops even though the change is inside the dead-band
	assert.Equal(t, 0, fanDuty(t, ctl))
}

func TestControllerNeverStopFanFloorsAtMinDuty(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(false, 0))
	device.SetEnvironment(20, 50)

	// WHEN
	ctl.Cycle()

	// THEN
	assert.Equal(t, 30, fanDuty(t, ctl))
}

func TestControllerAppliesPendingTopologyBetweenCycles(t *testing.T) {
	// GIVEN
	ctl, sim, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)
	ctl.Cycle()
	assert.Equal(t, 65, fanDuty(t, ctl))

	// WHEN
	// a hotter curve mapping 10..20° makes 45° saturate at 100%
	updated := createTestConfig(true, 0)
	updated.Curves[0].Linear.Min = 10
	updated.Curves[0].Linear.Max = 20
	pending, err := BuildTopology(updated, sim)
	assert.NoError(t, err)
	ctl.SetPending(pending)
	ctl.Cycle()

	// THEN
	assert.Equal(t, 100, fanDuty(t, ctl))
}

func TestControllerTwoFansOneSource(t *testing.T) {
	// GIVEN
	config := createTestConfig(true, 0)
	config.Fans = append(config.Fans, configuration.FanConfig{
		ID:      "rear",
		Pin:     16,
		Curve:   "curve",
		ZeroRpm: true,
	})
	ctl, sim, device := createTestController(t, config)
	device.SetEnvironment(45, 50)

	// WHEN
	ctl.Cycle()

	// THEN
	snapshot := ctl.Snapshot()
	assert.Equal(t, 65, snapshot.Fans["fan"].Duty)
	assert.Equal(t, 65, snapshot.Fans["rear"].Duty)
	assert.Equal(t, fans.QuantizeDuty(65), sim.Duty(15))
	assert.Equal(t, fans.QuantizeDuty(65), sim.Duty(16))
}

func TestControllerTwoCurvesOneSource(t *testing.T) {
	// GIVEN
	// two fans driven by different curves over the same sensor
	config := createTestConfig(true, 0)
	config.Curves = append(config.Curves, configuration.CurveConfig{
		ID: "hot_curve",
		Linear: &configuration.LinearCurveConfig{
			Sensor:  "ambient",
			Min:     40,
			Max:     50,
			MinDuty: 20,
		},
	})
	config.Fans = append(config.Fans, configuration.FanConfig{
		ID:      "rear",
		Pin:     16,
		Curve:   "hot_curve",
		ZeroRpm: true,
	})
	ctl, sim, device := createTestController(t, config)
	device.SetEnvironment(45, 50)

	// WHEN
	ctl.Cycle()

	// THEN
	// 45° maps to 65% on the 30..60 curve and 60% on the 40..50 curve
	snapshot := ctl.Snapshot()
	assert.Equal(t, 65, snapshot.Fans["fan"].Duty)
	assert.Equal(t, 60, snapshot.Fans["rear"].Duty)
	assert.Equal(t, fans.QuantizeDuty(65), sim.Duty(15))
	assert.Equal(t, fans.QuantizeDuty(60), sim.Duty(16))
}

func TestControllerSnapshotCycleCount(t *testing.T) {
	// GIVEN
	ctl, _, device := createTestController(t, createTestConfig(true, 0))
	device.SetEnvironment(45, 50)

	// WHEN
	ctl.Cycle()
	ctl.Cycle()
	ctl.Cycle()

	// THEN
	assert.Equal(t, uint64(3), ctl.Snapshot().Cycle)
}
