package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trezcool/fyp/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) migrate(ctx context.Context, command string, args ...string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(ctx, cli.db, command, args...)
}
