package fan

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var dutyCmd = &cobra.Command{
	Use:   "duty",
	Short: "Get the currently applied duty of a fan",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		fmt.Printf("%d", fan.GetDuty())
		return nil
	},
}

func init() {
	Command.AddCommand(dutyCmd)
}
