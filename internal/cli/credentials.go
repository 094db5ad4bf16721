package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCredentialsCmd() *cobra.Command {
	var clientID, clientSecret, redirectURI string

	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Store Withings API credentials",
		Long: `Stores the Withings app registration (client id, client secret and
optional redirect URI) in the configuration file. The redirect URI must
match the one registered with Withings exactly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			cfg := app.cfg
			cfg.Withings.ClientID = clientID
			cfg.Withings.ClientSecret = clientSecret
			if redirectURI != "" {
				cfg.Withings.RedirectURI = redirectURI
			}

			if err := app.loader.Save(cfg); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Credentials saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Withings client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Withings client secret")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "OAuth redirect URI (optional)")
	_ = cmd.MarkFlagRequired("client-id")
	_ = cmd.MarkFlagRequired("client-secret")

	return cmd
}
