package fans

import (
	"fmt"
	"sync"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/platform"
)

type PwmFan struct {
	Config configuration.FanConfig `json:"config"`

	output platform.PWMOutput

	stateMu     sync.Mutex
	duty        int
	lastApplied time.Time
}

func (fan *PwmFan) GetId() string {
	return fan.Config.ID
}

func (fan *PwmFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *PwmFan) GetCurveId() string {
	return fan.Config.Curve
}

func (fan *PwmFan) ShouldNeverStop() bool {
	return !fan.Config.ZeroRpm
}

func (fan *PwmFan) GetDuty() int {
	fan.stateMu.Lock()
	defer fan.stateMu.Unlock()
	return fan.duty
}

func (fan *PwmFan) SetDuty(percent int) error {
	if percent < MinDutyValue || percent > MaxDutyValue {
		panic(fmt.Sprintf("fan %s: duty %d outside [0..100]", fan.Config.ID, percent))
	}

	if err := fan.output.SetDuty(QuantizeDuty(percent)); err != nil {
		return fmt.Errorf("fan %s: setting duty: %w", fan.Config.ID, err)
	}

	fan.stateMu.Lock()
	fan.duty = percent
	fan.lastApplied = time.Now()
	fan.stateMu.Unlock()
	return nil
}

func (fan *PwmFan) State() FanState {
	fan.stateMu.Lock()
	defer fan.stateMu.Unlock()
	return FanState{
		FanID:         fan.Config.ID,
		Duty:          fan.duty,
		LastAppliedAt: fan.lastApplied,
	}
}
