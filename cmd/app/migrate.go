package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables or indexes for the configured store",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStores(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeStores(st)

	if err := st.migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", settings.StoreDriver, err)
	}
	logger.Info("migrations completed")
	return nil
}
