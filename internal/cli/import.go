package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodycomp/bodycomp/internal/logging"
)

func newImportCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import measurements from Withings into the local store",
		Long: `Fetches body-composition measurements from the Withings API and
merges them into the local CSV store. By default only data newer than
the store is fetched; --all refetches the full history (existing rows
are still never overwritten).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			imp, err := app.importer()
			if err != nil {
				return err
			}

			ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

			var added int
			if all {
				added, err = imp.ImportAll(ctx)
			} else {
				added, err = imp.ImportIncremental(ctx)
			}
			if err != nil {
				return err
			}

			if globalFlags.JSON {
				out, _ := json.Marshal(map[string]interface{}{
					"added": added,
					"file":  app.cfg.StorePath(),
				})
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			if added == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new measurements available.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported %d new measurements.\n", added)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Refetch the full history instead of only new data")

	return cmd
}
