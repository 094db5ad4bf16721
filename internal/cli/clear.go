package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored token and all local measurement data",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			if err := app.tokenStore().Clear(); err != nil {
				return err
			}
			if err := app.measurementStore().Clear(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Data and authentication cleared successfully.")
			return nil
		},
	}
}
