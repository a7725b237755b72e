package forecast

import (
	"io"
	"log/slog"

	"github.com/mgarzon/floracast-go/internal/logging"
)

// Package-level logger for forecast operations
var (
	forecastLogger   *slog.Logger
	forecastLevelVar = new(slog.LevelVar)
	closeLogger      func() error
)

func init() {
	var err error
	forecastLogger, closeLogger, err = logging.NewFileLogger("logs/forecast.log", "forecast", forecastLevelVar)
	if err != nil || forecastLogger == nil {
		// Fall back to a disabled handler to prevent nil panics
		forecastLogger = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "forecast")
		closeLogger = func() error { return nil }
		if err != nil {
			logging.Warn("Failed to initialize forecast file logger", "error", err)
		}
	}
}
