package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/application/handlers"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
	"github.com/ersonp/newscheck/internal/infrastructure/relationaldb/sqlite"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration and create the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			archive, err := sqlite.NewRepository(config.Default().SQLite)
			if err != nil {
				return fmt.Errorf("creating sqlite repository: %w", err)
			}
			defer archive.Close()

			// The default config leaves Qdrant disabled, so no collection is created here.
			result, err := handlers.NewInitHandler(archive, nil).Handle(ctx, resolvedConfigPath())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
			if result.ArchiveReady {
				fmt.Fprintf(out, "Created archive %s\n", archive.Path())
			}
			fmt.Fprintln(out, "newscheck initialized successfully!")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := config.Marshal(config.Redacted(cfg))
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
		},
	}
}
