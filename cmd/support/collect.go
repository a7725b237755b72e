package support

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/diagnostics"
)

var (
	noLogs      bool
	noConfig    bool
	noSystem    bool
	noArtifacts bool
	logDuration time.Duration
)

// CollectCommand creates the support data collection subcommand
func CollectCommand(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect system diagnostics for troubleshooting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, settings)
		},
	}

	cmd.Flags().BoolVar(&noLogs, "no-logs", false, "Skip application logs")
	cmd.Flags().BoolVar(&noConfig, "no-config", false, "Skip the scrubbed configuration")
	cmd.Flags().BoolVar(&noSystem, "no-system", false, "Skip system information")
	cmd.Flags().BoolVar(&noArtifacts, "no-artifacts", false, "Skip model artifact status")
	cmd.Flags().DurationVar(&logDuration, "log-duration", diagnostics.DefaultOptions().LogDuration, "How far back to collect logs")

	return cmd
}

func runCollect(cmd *cobra.Command, settings *conf.Settings) error {
	fmt.Println("Collecting support data...")

	opts := diagnostics.DefaultOptions()
	opts.IncludeLogs = !noLogs
	opts.IncludeConfig = !noConfig
	opts.IncludeSystemInfo = !noSystem
	opts.IncludeArtifacts = !noArtifacts
	opts.LogDuration = logDuration

	collector := diagnostics.NewCollector(settings)
	bundle, err := collector.Collect(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("collecting support data: %w", err)
	}

	archive, err := collector.CreateArchive(bundle)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	filename := fmt.Sprintf("floracast-go-support-%s.zip", bundle.ID)
	if err := os.WriteFile(filename, archive, 0o600); err != nil {
		return fmt.Errorf("saving archive: %w", err)
	}

	fmt.Printf("Support data collected and saved to: %s\n", filename)
	fmt.Printf("   System ID: %s, %d log entries, %d artifact domains\n",
		bundle.SystemID, len(bundle.Logs), len(bundle.Artifacts))
	return nil
}
