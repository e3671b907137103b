package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is the process wide logger, set by InitLogger.
var Logger = zap.NewNop()

// InitLogger builds a development logger, or a production one when production is true.
func InitLogger(production bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("initialize zap logger: %w", err)
	}

	Logger = logger
	Logger.Info("logger initialized", zap.Bool("production", production))
	return logger, nil
}
