package platform

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
	"periph.io/x/periph/host"
)

// PeriphPlatform drives real hardware through periph.io: I2C buses via
// i2creg, PWM via GPIO pins and analog inputs via externally registered
// analog.PinADC instances (on-board ADCs or an I2C ADC driver).
type PeriphPlatform struct {
	mu    sync.Mutex
	buses map[int]i2c.BusCloser
	adcs  map[int]analog.PinADC
	pwms  map[int]gpio.PinIO
}

func NewPeriphPlatform() (*PeriphPlatform, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}
	return &PeriphPlatform{
		buses: map[int]i2c.BusCloser{},
		adcs:  map[int]analog.PinADC{},
		pwms:  map[int]gpio.PinIO{},
	}, nil
}

// RegisterADC attaches an analog pin to the given channel index. periph
// has no global ADC registry, the host wiring decides which driver
// provides the pins.
func (p *PeriphPlatform) RegisterADC(channel int, pin analog.PinADC) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adcs[channel] = pin
}

func (p *PeriphPlatform) I2CBus(channel int) (I2CBus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bus, ok := p.buses[channel]
	if !ok {
		opened, err := i2creg.Open(strconv.Itoa(channel))
		if err != nil {
			return nil, fmt.Errorf("opening i2c bus %d: %w", channel, err)
		}
		p.buses[channel] = opened
		bus = opened
	}
	return periphI2CBus{bus: bus}, nil
}

func (p *PeriphPlatform) ADCChannel(channel int) (ADCChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pin, ok := p.adcs[channel]
	if !ok {
		return nil, fmt.Errorf("no ADC registered for channel %d", channel)
	}
	return periphADCChannel{pin: pin}, nil
}

func (p *PeriphPlatform) PWMOutput(pin int, frequencyHz int) (PWMOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gpioPin, ok := p.pwms[pin]
	if !ok {
		gpioPin = gpioreg.ByName(strconv.Itoa(pin))
		if gpioPin == nil {
			return nil, fmt.Errorf("no GPIO pin named %d", pin)
		}
		p.pwms[pin] = gpioPin
	}
	frequency := physic.Frequency(frequencyHz) * physic.Hertz
	return &periphPWMOutput{pin: gpioPin, frequency: frequency}, nil
}

func (p *PeriphPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, pin := range p.pwms {
		if err := pin.Halt(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, bus := range p.buses {
		if err := bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type periphI2CBus struct {
	bus i2c.Bus
}

func (b periphI2CBus) Tx(addr uint16, w []byte, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

type periphADCChannel struct {
	pin analog.PinADC
}

func (a periphADCChannel) Read() (uint16, error) {
	sample, err := a.pin.Read()
	if err != nil {
		return 0, err
	}
	min, max := a.pin.Range()
	span := int64(max.Raw) - int64(min.Raw)
	if span <= 0 {
		return 0, fmt.Errorf("ADC pin %s reports an empty range", a.pin.Name())
	}
	normalized := (int64(sample.Raw) - int64(min.Raw)) * AdcMaxValue / span
	if normalized < 0 {
		normalized = 0
	}
	if normalized > AdcMaxValue {
		normalized = AdcMaxValue
	}
	return uint16(normalized), nil
}

type periphPWMOutput struct {
	pin       gpio.PinIO
	frequency physic.Frequency
}

func (p *periphPWMOutput) SetDuty(value uint16) error {
	duty := gpio.Duty(int64(value) * int64(gpio.DutyMax) / PwmMaxValue)
	return p.pin.PWM(duty, p.frequency)
}
