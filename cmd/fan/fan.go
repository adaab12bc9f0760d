package fan

import (
	"errors"
	"fmt"

	"github.com/Mosical/pico-venti/internal"
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/spf13/cobra"
)

var fanId string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getFan(id string) (fans.Fan, error) {
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

	for _, config := range configuration.CurrentConfig.Fans {
		if config.ID == id {
			return fans.NewFan(config, p, configuration.CurrentConfig.Platform.PwmFrequency)
		}
	}

	return nil, errors.New(fmt.Sprintf("No fan with id found: %s", id))
}
