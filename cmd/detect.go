package cmd

import (
	"bytes"
	"fmt"

	"github.com/Mosical/pico-venti/cmd/global"
	"github.com/Mosical/pico-venti/internal"
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/hwio"
	"github.com/Mosical/pico-venti/internal/platform"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Scans all I²C channels for responding devices and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := createDetectPlatform()
		if err != nil {
			ui.Fatal("Unable to initialize the %s platform backend: %v", configuration.CurrentConfig.Platform.Backend, err)
		}
		defer func() {
			_ = p.Close()
		}()

		i2cManager := hwio.NewI2CManager(p)

		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		for channel := 0; channel < configuration.MaxI2CChannels; channel++ {
			ui.Printfln("> i2c channel %d", channel)

			var rows [][]string
			// 0x08..0x77 is the usable 7 bit address range
			for addr := uint16(0x08); addr <= 0x77; addr++ {
				if !i2cManager.Probe(channel, addr) {
					continue
				}
				note := ""
				if addr == 0x44 || addr == 0x45 {
					note = "SHT4x temperature/humidity sensor"
				}
				rows = append(rows, []string{
					"", fmt.Sprintf("0x%02X", addr), note,
				})
			}

			if rows == nil {
				ui.Printfln("no devices found")
				continue
			}

			deviceTable := table.Table{
				Headers: []string{"Devices", "Address", "Note"},
				Rows:    rows,
			}
			var buf bytes.Buffer
			if tableErr := deviceTable.WriteTable(&buf, tableConfig); tableErr != nil {
				ui.Fatal("Error printing table: %v", tableErr)
			}
			ui.Printfln(buf.String())
		}
	},
}

func createDetectPlatform() (platform.Platform, error) {
	configPath := configuration.DetectConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	return internal.CreatePlatform(configuration.CurrentConfig.Platform)
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
