package main

import (
	"errors"
	"log/slog"

	"github.com/phrazzld/profile-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("database.url is not configured")

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errNoDatabase
			}

			db, err := postgres.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					slog.Error("failed to close database", "error", err)
				}
			}()

			slog.Info("running migrations", "command", args[0])
			if err := postgres.Migrate(cmd.Context(), db, args[0]); err != nil {
				return err
			}
			slog.Info("migrations finished", "command", args[0])
			return nil
		},
	}
}
