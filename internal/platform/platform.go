package platform

// The platform layer provides the thin hardware access primitives the
// engine is layered on: I2C transactions, raw ADC samples and PWM duty
// output. Everything above (channel management, conversion math, curve
// evaluation) is hardware independent.

// AdcMaxValue is the full-scale raw value of an ADC sample. All backends
// normalize to 16 bit, matching the value range of the control math.
const AdcMaxValue = 65535

// PwmMaxValue is the full-scale PWM duty value (16 bit resolution).
const PwmMaxValue = 65535

type I2CBus interface {
	// Tx performs a write followed by a read as a single bus transaction.
	// Either w or r may be empty for a pure read or write.
	Tx(addr uint16, w []byte, r []byte) error
}

type ADCChannel interface {
	// Read returns a single raw sample in [0..AdcMaxValue].
	Read() (uint16, error)
}

type PWMOutput interface {
	// SetDuty applies a raw duty value in [0..PwmMaxValue].
	SetDuty(value uint16) error
}

type Platform interface {
	// I2CBus returns a handle for the given bus index. Handles are cached,
	// asking for the same channel twice yields the same bus.
	I2CBus(channel int) (I2CBus, error)

	// ADCChannel returns a handle for the given analog input.
	ADCChannel(channel int) (ADCChannel, error)

	// PWMOutput returns a handle for the given output pin, driven at the
	// given carrier frequency.
	PWMOutput(pin int, frequencyHz int) (PWMOutput, error)

	Close() error
}
