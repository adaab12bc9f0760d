package curve

import (
	"bytes"
	"sort"

	"github.com/Mosical/pico-venti/cmd/global"
	"github.com/Mosical/pico-venti/internal/configuration"
	"github.com/Mosical/pico-venti/internal/curves"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/Mosical/pico-venti/internal/util"
	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured fan curve(s) to console",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		if err = configuration.Validate(); err != nil {
			ui.Fatal(err.Error())
		}

		for idx, curveConf := range configuration.CurrentConfig.Curves {
			if idx > 0 {
				ui.Printfln("")
				ui.Printfln("")
			}

			curve, err := curves.NewSpeedCurve(curveConf)
			if err != nil {
				return err
			}

			var curveType string
			var graphValues map[int]float64 = nil
			switch c := curve.(type) {
			case *curves.LinearSpeedCurve:
				curveType = "Linear"

				if curveConf.Linear.Steps != nil {
					keys := map[int]float64{}
					for temp, duty := range curveConf.Linear.Steps {
						keys[temp] = float64(duty)
					}
					start := slices.Min(maps.Keys(keys))
					stop := slices.Max(maps.Keys(keys))
					graphValues = util.InterpolateLinearly(&keys, start, stop)
				} else {
					graphValues = sampleCurve(c, curveConf.Linear.Min, curveConf.Linear.Max)
				}
			case *curves.LogarithmicSpeedCurve:
				curveType = "Logarithmic"
				graphValues = sampleCurve(c, curveConf.Logarithmic.Min, curveConf.Logarithmic.Max)
			case *curves.ExponentialSpeedCurve:
				curveType = "Exponential"
				graphValues = sampleCurve(c, curveConf.Exponential.Min, curveConf.Exponential.Max)
			case *curves.FunctionSpeedCurve:
				curveType = "Functional"
			default:
				curveType = "Unknown"
			}

			// print table
			tab := table.Table{
				Headers: []string{"ID", "Type"},
				Rows: [][]string{
					{curve.GetId(), curveType},
				},
			}
			var buf bytes.Buffer
			tableErr := tab.WriteTable(&buf, &table.Config{
				ShowIndex:       false,
				Color:           !global.NoColor,
				AlternateColors: true,
				TitleColorCode:  ansi.ColorCode("white+buf"),
				AltColorCodes: []string{
					ansi.ColorCode("white"),
					ansi.ColorCode("white:236"),
				},
			})
			if tableErr != nil {
				panic(tableErr)
			}
			tableString := buf.String()
			ui.Printfln(tableString)

			if graphValues == nil {
				continue
			}

			keys := make([]int, 0, len(graphValues))
			for k := range graphValues {
				keys = append(keys, k)
			}
			sort.Ints(keys)

			values := make([]float64, 0, len(keys))
			for _, k := range keys {
				values = append(values, graphValues[k])
			}

			caption := "Duty % / °C"
			graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
			ui.Printfln(graph)
		}

		return nil
	},
}

type sampler interface {
	ValueAt(celsius float64) int
}

// sampleCurve evaluates the curve at whole degrees, one step past each
// end so the graph shows the flat regions.
func sampleCurve(curve sampler, min float64, max float64) map[int]float64 {
	values := map[int]float64{}
	for temp := int(min) - 1; temp <= int(max)+1; temp++ {
		values[temp] = float64(curve.ValueAt(float64(temp)))
	}
	return values
}

func init() {
	Command.AddCommand(listCmd)
}
