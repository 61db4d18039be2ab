package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/repo"
)

func (a *app) createDriverCommand() *cobra.Command {
	var in auth.NewDriver
	cmd := &cobra.Command{
		Use:   "createdriver",
		Short: "Register a driver who can sign in to the site",
		Example: `  taxi createdriver --username joyce --password 'change-me' \
    --first-name Joyce --last-name Byers --license JOY10001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.migrated(ctx, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := auth.CreateDriver(ctx, repo.NewDriverRepository(store.DB()), in)
			if err != nil {
				return fmt.Errorf("create driver: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created driver %d (%s)\n", d.ID, d.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "sign-in name")
	f.StringVar(&in.Password, "password", "", "sign-in password")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.LicenseNumber, "license", "", "license number: three uppercase letters and five digits")
	for _, name := range []string{"username", "password", "license"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
