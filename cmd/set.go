package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"swissdox-cli/internal/app"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change local settings",
}

var setKeyCmd = &cobra.Command{
	Use:   "key <api_key> <api_secret>",
	Short: "Store the Swissdox API key pair in ~/.swissdox-cli/.env",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.RunSetKey(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API credentials saved")
		return nil
	},
}

func init() {
	setCmd.AddCommand(setKeyCmd)
}
