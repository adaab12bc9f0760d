package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/stretchr/testify/assert"
)

func createTestPersistence(t *testing.T) Persistence {
	p := NewPersistence(filepath.Join(t.TempDir(), "pico-venti.db"))
	assert.NoError(t, p.Init())
	return p
}

func TestFanStateRoundtrip(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	state := fans.FanState{
		FanID:         "front",
		Duty:          65,
		LastAppliedAt: time.Now().Truncate(time.Second),
	}

	// WHEN
	err := p.SaveFanState(state)
	assert.NoError(t, err)
	loaded, err := p.LoadFanState("front")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, state.FanID, loaded.FanID)
	assert.Equal(t, state.Duty, loaded.Duty)
	assert.True(t, state.LastAppliedAt.Equal(loaded.LastAppliedAt))
}

func TestLoadUnknownFanStateFails(t *testing.T) {
	p := createTestPersistence(t)

	_, err := p.LoadFanState("ghost")

	assert.Error(t, err)
}

func TestDeleteFanState(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	assert.NoError(t, p.SaveFanState(fans.FanState{FanID: "front", Duty: 30}))

	// WHEN
	assert.NoError(t, p.DeleteFanState("front"))

	// THEN
	_, err := p.LoadFanState("front")
	assert.Error(t, err)
}

func TestDeleteMissingFanStateIsANoop(t *testing.T) {
	p := createTestPersistence(t)

	assert.NoError(t, p.DeleteFanState("ghost"))
}

func TestAppliedConfigRoundtrip(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	config := configuration.Configuration{
		Sensors: []configuration.SensorConfig{
			{
				ID: "ambient",
				Sht4x: &configuration.Sht4xSensorConfig{
					I2CChannel: 0,
					I2CAddress: 0x44,
					Precision:  configuration.PrecisionHigh,
				},
			},
		},
		Fans: []configuration.FanConfig{
			{ID: "front", Pin: 15, Curve: "curve", ZeroRpm: true},
		},
	}

	// WHEN
	err := p.SaveAppliedConfig(config)
	assert.NoError(t, err)
	loaded, err := p.LoadAppliedConfig()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, config.Sensors, loaded.Sensors)
	assert.Equal(t, config.Fans, loaded.Fans)
}

func TestLoadAppliedConfigWithoutSaveFails(t *testing.T) {
	p := createTestPersistence(t)

	_, err := p.LoadAppliedConfig()

	assert.Error(t, err)
}
