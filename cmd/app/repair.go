package main

import (
	"context"
	"fmt"

	"gramly/internal/workers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Replay pending desync journal entries once and exit",
	RunE:  runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStores(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeStores(st)

	w := newRepairWorker(st)
	n, err := w.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("repair pass: %w", err)
	}
	logger.Info("repair pass completed", zap.Int("processed", n))
	return nil
}

func newRepairWorker(st *stores) *workers.RepairWorker {
	return workers.NewRepairWorker(
		st.journal,
		st.users,
		st.posts,
		st.comments,
		settings.BatchSize,
		settings.RepairInterval,
		settings.RepairMaxAttempts,
		collector,
		logger,
	)
}
