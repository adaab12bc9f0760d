package configuration

import (
	"os"
	"time"

	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/qdm12/reprint"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Platform   PlatformConfig   `json:"platform"`
	Controller ControllerConfig `json:"controller"`
	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`

	Sensors []SensorConfig `json:"sensors"`
	Curves  []CurveConfig  `json:"curves"`
	Fans    []FanConfig    `json:"fans"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("pico-venti")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/pico-venti/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/etc/pico-venti/pico-venti.db")

	viper.SetDefault("platform.backend", PlatformBackendPeriph)
	viper.SetDefault("platform.adcSamples", 10)
	viper.SetDefault("platform.pwmFrequency", 25000)

	viper.SetDefault("controller.cycleRate", 1*time.Second)
	viper.SetDefault("controller.faultGraceCycles", 3)
	viper.SetDefault("controller.dutyDeadBand", 2)
	viper.SetDefault("controller.maxDutyChangePerCycle", 10)
	viper.SetDefault("controller.tempRollingWindowSize", 5)

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("sensors", []SensorConfig{})
	viper.SetDefault("curves", []CurveConfig{})
	viper.SetDefault("fans", []FanConfig{})
}

// DetectConfigFile returns the path of the config file used,
// as detected by viper. Fatal if no config file could be found.
func DetectConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

// LoadConfig decodes the config file read by viper into CurrentConfig.
func LoadConfig() {
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			intKeyedMapHookFunc(),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
	applyEntityDefaults(&CurrentConfig)
}

// applyEntityDefaults fills in per-instance defaults that viper's
// top-level defaults cannot cover (list entries are unknown up front).
// Zero values mean "not set" for all of these fields.
func applyEntityDefaults(config *Configuration) {
	for i := range config.Sensors {
		if sht4x := config.Sensors[i].Sht4x; sht4x != nil {
			if sht4x.I2CAddress == 0 {
				sht4x.I2CAddress = 0x44
			}
			if len(sht4x.Precision) <= 0 {
				sht4x.Precision = PrecisionHigh
			}
		}
		if thermistor := config.Sensors[i].Thermistor; thermistor != nil {
			if thermistor.NominalTemp == 0 {
				thermistor.NominalTemp = 25
			}
			if thermistor.Beta == 0 {
				thermistor.Beta = 3950
			}
			if thermistor.NominalResistance == 0 {
				thermistor.NominalResistance = 10000
			}
			if thermistor.ReferenceResistance == 0 {
				thermistor.ReferenceResistance = 10000
			}
		}
	}

	for i := range config.Curves {
		if linear := config.Curves[i].Linear; linear != nil && linear.MinDuty == 0 {
			linear.MinDuty = 30
		}
		if logarithmic := config.Curves[i].Logarithmic; logarithmic != nil && logarithmic.MinDuty == 0 {
			logarithmic.MinDuty = 30
		}
		if exponential := config.Curves[i].Exponential; exponential != nil && exponential.MinDuty == 0 {
			exponential.MinDuty = 30
		}
	}
}

// ReloadConfig re-reads the config file from disk and returns the decoded
// result without touching CurrentConfig, so a failed live reload
// leaves the active configuration untouched.
func ReloadConfig() (Configuration, error) {
	var config Configuration
	if err := viper.ReadInConfig(); err != nil {
		return config, err
	}
	err := viper.Unmarshal(
		&config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			intKeyedMapHookFunc(),
		)),
	)
	if err != nil {
		return config, err
	}
	applyEntityDefaults(&config)
	return config, nil
}

// Clone returns a deep copy of the given configuration, so topology
// snapshots handed across the reload boundary share no mutable state.
func Clone(config Configuration) Configuration {
	var result Configuration
	reprint.FromTo(&config, &result)
	return result
}
