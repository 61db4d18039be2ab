package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/taxi/internal/seed"
)

func (a *app) seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load manufacturers, drivers and cars from a YAML fixture",
		Long: `Load manufacturers, drivers and cars from a YAML fixture. Without --file
the built-in demo fleet is loaded. Records that already exist are kept, so
seeding twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, err := readFixtures(file)
			if err != nil {
				return err
			}
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

			res, err := seed.Load(ctx, store.DB(), fx)
			if err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d manufacturers, %d drivers, %d cars\n",
				res.Manufacturers, res.Drivers, res.Cars)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (default: built-in demo fleet)")
	return cmd
}

func readFixtures(path string) (seed.Fixtures, error) {
	if path == "" {
		return seed.Default() //nolint:wrapcheck // already prefixed
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return seed.Parse(f) //nolint:wrapcheck // already prefixed
}
