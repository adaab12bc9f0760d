package control_loop

type ControlLoop interface {
	// Loop returns the duty adjustment towards target for this cycle,
	// given the currently applied duty.
	Loop(target float64, current float64) float64
}
