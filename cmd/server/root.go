package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/profile-api/internal/config"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

type contextKey string

const configContextKey contextKey = "config"

// newRootCommand builds the command tree. It is a function rather than a
// package-level variable so tests get a fresh tree each time.
func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "profile-api",
		Short: "User profile API with token authentication",
		Long: `profile-api serves user registration, sessions, token refresh and
profile lookups over HTTP. Configuration comes from PROFILE_* environment
variables, an optional config.yaml, and a .env file outside production.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if _, err := logger.Setup(cfg.Server); err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), configContextKey, cfg))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults to ./config.yaml when present")

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

// configFrom retrieves the Config loaded by the root command.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configContextKey).(*config.Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}
