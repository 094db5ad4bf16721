package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodycomp/bodycomp/internal/logging"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the Withings API",
		Long: `Runs the interactive OAuth flow: opens the browser at the Withings
authorization page, waits for the redirect on the local callback port,
and stores the resulting token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			auth, err := app.sessionManager()
			if err != nil {
				return err
			}

			ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())
			if _, err := auth.Authenticate(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Successfully authenticated with Withings.")
			return nil
		},
	}
}
