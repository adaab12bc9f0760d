package fans

import (
	"math"
	"time"

	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/platform"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	MaxDutyValue = 100
	MinDutyValue = 0
)

var (
	FanMap = cmap.New[Fan]()
)

// FanState is the actuator-owned state of one fan, published read-only
// in end-of-cycle snapshots.
type FanState struct {
	FanID         string    `json:"fanId"`
	Duty          int       `json:"duty"`
	LastAppliedAt time.Time `json:"lastAppliedAt"`
}

type Fan interface {
	GetId() string

	GetConfig() configuration.FanConfig

	// GetCurveId returns the id of the speed curve associated with this fan
	GetCurveId() string

	// ShouldNeverStop indicates whether this fan must be kept at its
	// curve's minimum running duty instead of stopping (zero-RPM disabled)
	ShouldNeverStop() bool

	// GetDuty returns the duty percentage currently applied
	GetDuty() int

	// SetDuty quantizes the given percentage to the PWM resolution and
	// drives the output. Values outside [0..100] are a programming error.
	SetDuty(percent int) error

	State() FanState
}

// GetFan returns the fan with the given id, if it is registered.
func GetFan(id string) (Fan, bool) {
	return FanMap.Get(id)
}

func NewFan(config configuration.FanConfig, p platform.Platform, pwmFrequencyHz int) (Fan, error) {
	output, err := p.PWMOutput(config.Pin, pwmFrequencyHz)
	if err != nil {
		return nil, err
	}
	return &PwmFan{
		Config: config,
		output: output,
	}, nil
}

// QuantizeDuty converts a duty percentage to the raw 16 bit PWM value.
func QuantizeDuty(percent int) uint16 {
	return uint16(math.Round(float64(percent) / MaxDutyValue * platform.PwmMaxValue))
}
