package configuration

import "time"

type ControllerConfig struct {
	// CycleRate is the time between two control cycles. Must exceed the
	// sum of the worst-case measurement latencies of all enabled sensors.
	CycleRate time.Duration `json:"cycleRate"`
	// FaultGraceCycles is the number of consecutive faulted cycles during
	// which the last computed duty is held before failing safe to 100%.
	FaultGraceCycles int `json:"faultGraceCycles"`
	// DutyDeadBand suppresses duty changes smaller than this many percent
	// to avoid oscillation around curve breakpoints.
	DutyDeadBand int `json:"dutyDeadBand"`
	// MaxDutyChangePerCycle limits the ramp rate of duty changes, in
	// percent per cycle. Fail-safe actuation ignores this limit.
	MaxDutyChangePerCycle int `json:"maxDutyChangePerCycle"`
	// TempRollingWindowSize is the sample count of the moving average
	// applied to sensor readings before curve evaluation.
	TempRollingWindowSize int `json:"tempRollingWindowSize"`
}

const (
	PlatformBackendPeriph = "periph"
	PlatformBackendSim    = "sim"
)

type PlatformConfig struct {
	// Backend selects the hardware access layer: periph | sim
	Backend string `json:"backend"`
	// AdcSamples is the number of raw samples averaged per thermistor poll
	AdcSamples int `json:"adcSamples"`
	// PwmFrequency of the fan control outputs in Hz
	PwmFrequency int `json:"pwmFrequency"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}
