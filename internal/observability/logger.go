package observability

import (
	"io"
	"log/slog"

	"github.com/mgarzon/floracast-go/internal/logging"
)

// Package-level logger for the metrics endpoint
var (
	log         *slog.Logger
	logLevelVar = new(slog.LevelVar)
	closeLogger func() error
)

func init() {
	var err error
	log, closeLogger, err = logging.NewFileLogger("logs/metrics.log", "observability", logLevelVar)
	if err != nil || log == nil {
		// Fall back to a disabled handler to prevent nil panics
		log = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "observability")
		closeLogger = func() error { return nil }
		if err != nil {
			logging.Warn("Failed to initialize observability file logger", "error", err)
		}
	}
}
