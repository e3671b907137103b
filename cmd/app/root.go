package main

import (
	"fmt"

	"gramly/internal/config"
	"gramly/internal/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	settings  *config.Settings
	logger    *zap.Logger
	collector *metrics.Collector
)

var rootCmd = &cobra.Command{
	Use:   "gramly",
	Short: "Photo sharing backend",
	Long: `gramly serves the photo sharing API: accounts, posts, likes, comments,
bookmarks and follows. Without a subcommand it runs the HTTP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runServe,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func loadSettings(cmd *cobra.Command, args []string) error {
	s, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	l, err := config.InitLogger(s.Production())
	if err != nil {
		return err
	}
	settings, logger = s, l
	collector = newCollector()
	return nil
}
