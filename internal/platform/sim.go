package platform

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Mosical/pico-venti/internal/util"
)

// SimPlatform is an in-memory platform backend. It emulates the SHT4x
// wire protocol and raw ADC inputs, which makes it usable both for tests
// and for running the daemon on a machine without the actual hardware.
type SimPlatform struct {
	mu     sync.Mutex
	buses  map[int]*simI2CBus
	adcs   map[int]*simADCChannel
	pwms   map[int]*simPWMOutput
	closed bool
}

func NewSimPlatform() *SimPlatform {
	return &SimPlatform{
		buses: map[int]*simI2CBus{},
		adcs:  map[int]*simADCChannel{},
		pwms:  map[int]*simPWMOutput{},
	}
}

func (p *SimPlatform) I2CBus(channel int) (I2CBus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bus, ok := p.buses[channel]
	if !ok {
		bus = &simI2CBus{devices: map[uint16]*SimSht4x{}}
		p.buses[channel] = bus
	}
	return bus, nil
}

func (p *SimPlatform) ADCChannel(channel int) (ADCChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	adc, ok := p.adcs[channel]
	if !ok {
		// mid-scale matches R == Rref, 25°C for the default thermistor
		adc = &simADCChannel{raw: AdcMaxValue / 2}
		p.adcs[channel] = adc
	}
	return adc, nil
}

func (p *SimPlatform) PWMOutput(pin int, frequencyHz int) (PWMOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pwm, ok := p.pwms[pin]
	if !ok {
		pwm = &simPWMOutput{frequencyHz: frequencyHz}
		p.pwms[pin] = pwm
	}
	return pwm, nil
}

func (p *SimPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// AddSht4x attaches an emulated SHT4x to the given bus and address and
// returns a handle to steer its environment.
func (p *SimPlatform) AddSht4x(channel int, addr uint16) *SimSht4x {
	bus, _ := p.I2CBus(channel)
	simBus := bus.(*simI2CBus)
	device := &SimSht4x{temperature: 25, humidity: 50}
	simBus.mu.Lock()
	simBus.devices[addr] = device
	simBus.mu.Unlock()
	return device
}

// SetAdcRaw sets the raw sample returned by the given analog channel.
func (p *SimPlatform) SetAdcRaw(channel int, raw uint16) {
	adc, _ := p.ADCChannel(channel)
	adc.(*simADCChannel).set(raw)
}

// FailAdc makes the next n reads of the given analog channel fail.
func (p *SimPlatform) FailAdc(channel int, n int) {
	adc, _ := p.ADCChannel(channel)
	adc.(*simADCChannel).FailNext(n)
}

// Duty returns the last duty value applied to the given pin.
func (p *SimPlatform) Duty(pin int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	pwm, ok := p.pwms[pin]
	if !ok {
		return 0
	}
	return pwm.get()
}

type simI2CBus struct {
	mu      sync.Mutex
	devices map[uint16]*SimSht4x
}

func (b *simI2CBus) Tx(addr uint16, w []byte, r []byte) error {
	b.mu.Lock()
	device, ok := b.devices[addr]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("sim i2c: no device at address %#02x", addr)
	}
	return device.tx(w, r)
}

// SimSht4x emulates the SHT4x command/response protocol including CRCs.
type SimSht4x struct {
	mu          sync.Mutex
	temperature float64
	humidity    float64
	lastCommand byte
	// Failures makes the next n transactions fail
	failures int
	// CorruptCrc makes responses carry broken checksums
	corruptCrc bool
}

func (s *SimSht4x) SetEnvironment(temperature float64, humidity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = temperature
	s.humidity = humidity
}

// FailNext makes the next n transactions return a bus error.
func (s *SimSht4x) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

// CorruptCrc toggles checksum corruption of measurement responses.
func (s *SimSht4x) CorruptCrc(corrupt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corruptCrc = corrupt
}

func (s *SimSht4x) tx(w []byte, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return fmt.Errorf("sim i2c: bus error")
	}

	if len(w) > 0 {
		s.lastCommand = w[0]
	}
	if len(r) <= 0 {
		return nil
	}

	switch s.lastCommand {
	case 0xFD, 0xF6, 0xE0:
		if len(r) != 6 {
			return fmt.Errorf("sim sht4x: unexpected read length %d", len(r))
		}
		s.encodeMeasurement(r)
		return nil
	case 0x89:
		if len(r) != 4 {
			return fmt.Errorf("sim sht4x: unexpected read length %d", len(r))
		}
		binary.BigEndian.PutUint32(r, 0x4E7E57ED)
		return nil
	default:
		if len(r) == 1 {
			// a plain receive-byte is ACKed, this is what a probe sends
			r[0] = 0
			return nil
		}
		return fmt.Errorf("sim sht4x: read without measurement command")
	}
}

func (s *SimSht4x) encodeMeasurement(r []byte) {
	rawTemp := uint16((s.temperature + 45.0) / 175.0 * 65535.0)
	rawHum := uint16((s.humidity + 6.0) / 125.0 * 65535.0)

	binary.BigEndian.PutUint16(r[0:2], rawTemp)
	r[2] = util.CRC8(r[0:2])
	binary.BigEndian.PutUint16(r[3:5], rawHum)
	r[5] = util.CRC8(r[3:5])

	if s.corruptCrc {
		r[2] ^= 0xFF
	}
}

type simADCChannel struct {
	mu  sync.Mutex
	raw uint16
	// Failures makes the next n reads fail
	failures int
}

func (a *simADCChannel) set(raw uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.raw = raw
}

// FailNext makes the next n reads return an error.
func (a *simADCChannel) FailNext(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = n
}

func (a *simADCChannel) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failures > 0 {
		a.failures--
		return 0, fmt.Errorf("sim adc: read error")
	}
	return a.raw, nil
}

type simPWMOutput struct {
	mu          sync.Mutex
	duty        uint16
	frequencyHz int
}

func (p *simPWMOutput) SetDuty(value uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duty = value
	return nil
}

func (p *simPWMOutput) get() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty
}
