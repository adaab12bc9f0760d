package hwio

import (
	"testing"

	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestAdcReadAveragesSamples(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.SetAdcRaw(0, 40000)
	reader := NewADCReader(sim, 8)

	// WHEN
	value, err := reader.Read(0)

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 40000, value, 0.001)
}

func TestAdcReadFailsWhenAnySampleFails(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.FailAdc(1, 1)
	reader := NewADCReader(sim, 4)

	// WHEN
	_, err := reader.Read(1)

	// THEN
	assert.Error(t, err)
}

func TestAdcReadRejectsInvalidChannel(t *testing.T) {
	// GIVEN
	reader := NewADCReader(platform.NewSimPlatform(), 4)

	// WHEN
	_, errNegative := reader.Read(-1)
	_, errTooHigh := reader.Read(99)

	// THEN
	assert.Error(t, errNegative)
	assert.Error(t, errTooHigh)
}

func TestAdcSampleCountFloorsAtOne(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.SetAdcRaw(2, 123)
	reader := NewADCReader(sim, 0)

	// WHEN
	value, err := reader.Read(2)

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 123, value, 0.001)
}
