package configuration

type CurveConfig struct {
	ID          string                  `json:"id"`
	Linear      *LinearCurveConfig      `json:"linear,omitempty"`
	Logarithmic *LogarithmicCurveConfig `json:"logarithmic,omitempty"`
	Exponential *ExponentialCurveConfig `json:"exponential,omitempty"`
	Function    *FunctionCurveConfig    `json:"function,omitempty"`
}

type LinearCurveConfig struct {
	Sensor string  `json:"sensor"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// MinDuty is the duty the curve yields just above Min, defaults to 30
	MinDuty int `json:"minDuty"`
	// Steps maps temperature (°C) to duty directly, overriding Min/Max
	Steps map[int]int `json:"steps,omitempty"`
}

type LogarithmicCurveConfig struct {
	Sensor  string  `json:"sensor"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	MinDuty int     `json:"minDuty"`
}

type ExponentialCurveConfig struct {
	Sensor  string  `json:"sensor"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	MinDuty int     `json:"minDuty"`
}

const (
	FunctionMinimum = "minimum"
	FunctionMaximum = "maximum"
	FunctionAverage = "average"
)

type FunctionCurveConfig struct {
	Type   string   `json:"type"`
	Curves []string `json:"curves"`
}
