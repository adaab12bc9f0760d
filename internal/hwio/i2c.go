package hwio

import (
	"fmt"
	"sync"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/platform"
)

// I2CManager serializes access to the platform's I2C buses. Each bus
// carries at most one transaction at a time, independent buses do not
// block each other.
type I2CManager struct {
	platform platform.Platform

	mu    sync.Mutex
	buses map[int]*managedBus
}

type managedBus struct {
	mu  sync.Mutex
	bus platform.I2CBus
}

func NewI2CManager(p platform.Platform) *I2CManager {
	return &I2CManager{
		platform: p,
		buses:    map[int]*managedBus{},
	}
}

// Transact sends command to the device at addr, waits for the device's
// measurement delay and reads readLen bytes back, holding the bus for
// the whole sequence. A failed transaction is retried exactly once
// before the error is surfaced; never more, a tight retry loop would
// starve the control cycle budget.
func (m *I2CManager) Transact(channel int, addr uint16, command []byte, delay time.Duration, readLen int) ([]byte, error) {
	bus, err := m.bus(channel)
	if err != nil {
		return nil, err
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	result, err := transactOnce(bus.bus, addr, command, delay, readLen)
	if err == nil {
		return result, nil
	}
	result, retryErr := transactOnce(bus.bus, addr, command, delay, readLen)
	if retryErr != nil {
		return nil, fmt.Errorf("i2c channel %d, device %#02x: %w", channel, addr, retryErr)
	}
	return result, nil
}

// Probe checks whether a device answers at the given address.
func (m *I2CManager) Probe(channel int, addr uint16) bool {
	bus, err := m.bus(channel)
	if err != nil {
		return false
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.bus.Tx(addr, nil, make([]byte, 1)) == nil
}

func (m *I2CManager) bus(channel int) (*managedBus, error) {
	if channel < 0 || channel >= configuration.MaxI2CChannels {
		return nil, fmt.Errorf("invalid i2c channel %d", channel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bus, ok := m.buses[channel]
	if !ok {
		opened, err := m.platform.I2CBus(channel)
		if err != nil {
			return nil, err
		}
		bus = &managedBus{bus: opened}
		m.buses[channel] = bus
	}
	return bus, nil
}

func transactOnce(bus platform.I2CBus, addr uint16, command []byte, delay time.Duration, readLen int) ([]byte, error) {
	if err := bus.Tx(addr, command, nil); err != nil {
		return nil, err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if readLen <= 0 {
		return nil, nil
	}
	result := make([]byte, readLen)
	if err := bus.Tx(addr, nil, result); err != nil {
		return nil, err
	}
	return result, nil
}
