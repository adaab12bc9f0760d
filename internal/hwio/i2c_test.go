package hwio

import (
	"sync"
	"testing"
	"time"

	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/stretchr/testify/assert"
)

const measureHighCmd = 0xFD

func TestTransactReadsMeasurementFrame(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.AddSht4x(0, 0x44)
	manager := NewI2CManager(sim)

	// WHEN
	frame, err := manager.Transact(0, 0x44, []byte{measureHighCmd}, time.Millisecond, 6)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, frame, 6)
}

func TestTransactRetriesOnce(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	device := sim.AddSht4x(0, 0x44)
	manager := NewI2CManager(sim)
	device.FailNext(1)

	// WHEN
	frame, err := manager.Transact(0, 0x44, []byte{measureHighCmd}, time.Millisecond, 6)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, frame, 6)
}

func TestTransactGivesUpAfterSecondFailure(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	device := sim.AddSht4x(0, 0x44)
	manager := NewI2CManager(sim)
	device.FailNext(2)

	// WHEN
	_, err := manager.Transact(0, 0x44, []byte{measureHighCmd}, time.Millisecond, 6)

	// THEN
	assert.Error(t, err)
}

func TestTransactRejectsInvalidChannel(t *testing.T) {
	// GIVEN
	manager := NewI2CManager(platform.NewSimPlatform())

	// WHEN
	_, errNegative := manager.Transact(-1, 0x44, []byte{measureHighCmd}, 0, 6)
	_, errTooHigh := manager.Transact(99, 0x44, []byte{measureHighCmd}, 0, 6)

	// THEN
	assert.Error(t, errNegative)
	assert.Error(t, errTooHigh)
}

func TestProbe(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.AddSht4x(1, 0x45)
	manager := NewI2CManager(sim)

	// WHEN / THEN
	assert.True(t, manager.Probe(1, 0x45))
	assert.False(t, manager.Probe(1, 0x44))
	assert.False(t, manager.Probe(0, 0x45))
}

func TestTransactSerializesBusAccess(t *testing.T) {
	// GIVEN
	sim := platform.NewSimPlatform()
	sim.AddSht4x(0, 0x44)
	manager := NewI2CManager(sim)

	// WHEN
	// concurrent transactions on the same bus must not interleave their
	// write/read pairs; an interleaved pair would corrupt the frame and
	// fail decoding inside the device emulation
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Transact(0, 0x44, []byte{measureHighCmd}, 100*time.Microsecond, 6)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// THEN
	for err := range errs {
		assert.NoError(t, err)
	}
}
