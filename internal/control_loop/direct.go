package control_loop

import (
	"github.com/Mosical/pico-venti/internal/util"
)

// DirectControlLoop approaches the target duty directly, limiting the
// change per cycle to avoid abrupt mechanical and acoustic steps.
type DirectControlLoop struct {
	// maxDutyChangePerCycle limits the allowed duty change per cycle,
	// in percent. A value <= 0 disables the limit.
	maxDutyChangePerCycle int
}

func NewDirectControlLoop(maxDutyChangePerCycle int) *DirectControlLoop {
	return &DirectControlLoop{
		maxDutyChangePerCycle: maxDutyChangePerCycle,
	}
}

func (l *DirectControlLoop) Loop(target float64, current float64) float64 {
	err := target - current
	if l.maxDutyChangePerCycle <= 0 {
		return err
	}

	maxChange := float64(l.maxDutyChangePerCycle)
	if err > 0 {
		// below the target, ramp up by at most maxChange
		return util.Coerce(err, 0, maxChange)
	}
	// above or at the target, ramp down by at most maxChange
	return util.Coerce(err, -maxChange, 0)
}
