package fan

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/spf13/cobra"
)

var setDutyCmd = &cobra.Command{
	Use:   "setDuty",
	Short: "Set the duty of a fan to the given percentage ([0..100])",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duty, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		if duty < fans.MinDutyValue || duty > fans.MaxDutyValue {
			return errors.New(fmt.Sprintf("Duty out of range [0..100]: %d", duty))
		}

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		return fan.SetDuty(duty)
	},
}

func init() {
	Command.AddCommand(setDutyCmd)
}
