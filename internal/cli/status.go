package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication state and stored data summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			auth, err := app.sessionManager()
			if err != nil {
				return err
			}

			authenticated := auth.Authenticated()
			count, err := app.measurementStore().Count()
			if err != nil {
				return err
			}

			if globalFlags.JSON {
				out, _ := json.Marshal(map[string]interface{}{
					"authenticated": authenticated,
					"measurements":  count,
					"store":         app.cfg.StorePath(),
				})
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			if authenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Authenticated with Withings.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated. Run 'bodycomp auth' first.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored measurements: %d (%s)\n", count, app.cfg.StorePath())
			return nil
		},
	}
}
