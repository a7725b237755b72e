package modelsync

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/conf"
)

var (
	domain  string
	baseURL string
)

// Command creates the modelsync command which downloads model
// artifacts from the configured sync endpoints.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modelsync",
		Short: "Download model artifacts from the sync endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelSync(cmd, settings)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Limit sync to one domain")
	cmd.Flags().StringVar(&baseURL, "url", "", "Override the sync base URL, requires --domain")

	return cmd
}

func runModelSync(cmd *cobra.Command, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if baseURL != "" && domain == "" {
		return fmt.Errorf("--url requires --domain")
	}

	domains := settings.DomainNames()
	if domain != "" {
		if _, ok := settings.Forecast.Domains[domain]; !ok {
			return fmt.Errorf("unknown domain: %s", domain)
		}
		domains = []string{domain}
	}

	failures := 0
	synced := 0
	for _, d := range domains {
		dc := settings.Forecast.Domains[d]
		url := dc.SyncURL
		if baseURL != "" {
			url = baseURL
		}
		if url == "" {
			fmt.Printf("⏭️ %s: no sync URL configured, skipping\n", d)
			continue
		}

		fmt.Printf("⏳ %s: syncing from %s\n", d, url)
		fetcher := artifact.NewFetcher(d, url)
		changed, err := fetcher.Sync(ctx, conf.GetBasePath(dc.ArtifactDir))
		switch {
		case err != nil:
			fmt.Printf("❌ %s: %v\n", d, err)
			failures++
		case changed:
			fmt.Printf("✅ %s: artifacts updated\n", d)
			synced++
		default:
			fmt.Printf("✅ %s: already up to date\n", d)
			synced++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d domains failed to sync", failures, failures+synced)
	}
	return nil
}
