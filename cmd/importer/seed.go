package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store"
)

func (a *app) seedGenresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-genres",
		Short: "Create the default genre vocabulary",
		Long: `
Creates every default genre that does not exist yet. Safe to run repeatedly.
`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return a.withStore(c.Context(), func(db store.Backend) error {
				r := core.NewLookupResolver(db, a.logger)
				ids, err := core.SeedLookups(c.Context(), r, core.LookupGenre, core.DefaultGenres)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "genres: %d ensured\n", len(ids))
				return nil
			})
		},
	}
}

func (a *app) initSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create missing tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			db, err := a.openStore(c.Context(), a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.InitSchema(c.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "schema ready (%s)\n", a.cfg.Database.Driver)
			return nil
		},
	}
}
