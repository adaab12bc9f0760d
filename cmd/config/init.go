package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

const defaultConfig = `# Hardware access backend, one of: periph, sim
platform:
  backend: periph
  adcSamples: 10
  pwmFrequency: 25000

controller:
  cycleRate: 1s
  faultGraceCycles: 3
  dutyDeadBand: 2
  maxDutyChangePerCycle: 10

sensors:
  - id: ambient
    sht4x:
      i2cChannel: 0
      i2cAddress: 0x44
      precision: high
  - id: case
    thermistor:
      adcChannel: 0
      nominalTemp: 25
      beta: 3950
      nominalResistance: 10000
      referenceResistance: 10000

curves:
  - id: case_curve
    linear:
      sensor: case
      min: 30
      max: 60
      minDuty: 30

fans:
  - id: front
    pin: 15
    curve: case_curve
    zeroRpm: true
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Long:  `Writes a commented example configuration to the given path, refusing to overwrite an existing file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		if _, err := os.Stat(path); err == nil {
			return errors.New(fmt.Sprintf("File already exists: %s", path))
		}

		if err := atomic.WriteFile(path, strings.NewReader(defaultConfig)); err != nil {
			return err
		}

		ui.Success("Wrote example configuration to %s", path)
		return nil
	},
}

func init() {
	Command.AddCommand(initCmd)
}
