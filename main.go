package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mgarzon/floracast-go/cmd"
	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/logging"
	"github.com/mgarzon/floracast-go/internal/telemetry"
)

// Populated by the linker at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	exitCode := run()

	// Give pending telemetry events a chance to leave before exit.
	telemetry.Flush(3 * time.Second)
	os.Exit(exitCode)
}

func run() int {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	settings.Version = version
	settings.BuildDate = buildDate

	// The anonymous system ID also identifies support bundles, so it is
	// established even when telemetry stays disabled.
	if err := telemetry.EnsureSystemID(settings); err != nil {
		logging.Warn("Failed to establish system ID", "error", err)
	}
	if err := telemetry.Init(settings); err != nil {
		logging.Warn("Failed to initialize telemetry", "error", err)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		// cobra already printed the error
		return 1
	}
	return 0
}
