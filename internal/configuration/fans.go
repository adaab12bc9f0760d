package configuration

type FanConfig struct {
	ID string `json:"id"`
	// Pin is the PWM output the fan's control line is wired to
	Pin int `json:"pin"`
	// Curve references the speed curve driving this fan
	Curve string `json:"curve"`
	// ZeroRpm allows the fan to stop completely at/below the
	// curve's minimum temperature
	ZeroRpm bool `json:"zeroRpm"`
}
