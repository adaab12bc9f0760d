package sensor

import (
	"errors"
	"fmt"

	"github.com/Mosical/pico-venti/internal"
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sensorId string

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Sensor related commands",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		sensor, err := getSensor(sensorId)
		if err != nil {
			return err
		}

		measurement, err := sensor.Measure()
		if err != nil {
			return err
		}

		if measurement.HasHumidity {
			fmt.Printf("%.2f °C, %.2f %%RH", measurement.Celsius, measurement.Humidity)
		} else {
			fmt.Printf("%.2f °C", measurement.Celsius)
		}
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getSensor(id string) (sensors.Sensor, error) {
	configPath := configuration.DetectConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(); err != nil {
		ui.Fatal("%v", err)
	}

	p, err := internal.CreatePlatform(configuration.CurrentConfig.Platform)
	if err != nil {
		return nil, err
	}

	i2cManager := hwio.NewI2CManager(p)
	adcReader := hwio.NewADCReader(p, configuration.CurrentConfig.Platform.AdcSamples)

	availableSensorIds := []string{}
	for _, config := range configuration.CurrentConfig.Sensors {
		availableSensorIds = append(availableSensorIds, config.ID)
		if config.ID == id {
			return sensors.NewSensor(config, i2cManager, adcReader)
		}
	}

	return nil, errors.New(fmt.Sprintf("No sensor with id found: %s, options: %s", id, availableSensorIds))
}
