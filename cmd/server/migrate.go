package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), validMigrationCommand),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadAppConfig()
			if err != nil {
				return err
			}

			db, err := setupAppDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(ctx, db, args[0], logger)
		},
	}
}

// validMigrationCommand rejects unknown commands before any connection is opened.
func validMigrationCommand(_ *cobra.Command, args []string) error {
	if !slices.Contains(postgres.MigrationCommands, args[0]) {
		return fmt.Errorf("unknown migration command %q (expected one of %s)",
			args[0], strings.Join(postgres.MigrationCommands, ", "))
	}
	return nil
}
