package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-approval/internal/migrations"
	"github.com/garyjia/travel-approval/pkg/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := database.New(database.Config{
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			applied, err := migrator.Run(migrations.FS)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			versions, err := migrator.AppliedVersions()
			if err != nil {
				return err
			}
			list := make([]int, 0, len(versions))
			for v := range versions {
				list = append(list, v)
			}
			sort.Ints(list)

			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s); schema versions %v\n", applied, list)
			return nil
		},
	}
}
