package modelinfo

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/forecast"
)

var (
	domain     string
	jsonOutput bool
)

// Command creates the modelinfo command which loads the configured
// model artifacts and reports what is resident per domain.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modelinfo",
		Short: "Show model artifact details per domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelInfo(settings)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Limit output to one domain")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a report")

	return cmd
}

func runModelInfo(settings *conf.Settings) error {
	engine, err := forecast.New(settings)
	if err != nil {
		return err
	}
	defer engine.Close()

	domains := engine.Domains()
	if domain != "" {
		domains = []string{domain}
	}

	infos := make([]artifact.Info, 0, len(domains))
	for _, d := range domains {
		// Info snapshots never load artifacts on their own, so force a
		// load first. A failed load still yields an info carrying the
		// error.
		loadErr := engine.Reload(d)
		info, err := engine.ModelInfo(d)
		if err != nil {
			return err
		}
		if loadErr != nil && info.LastError == "" {
			info.LastError = loadErr.Error()
		}
		infos = append(infos, info)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	for i := range infos {
		printInfo(&infos[i])
	}
	return nil
}

func printInfo(info *artifact.Info) {
	fmt.Printf("📦 Domain: %s\n", info.Domain)
	fmt.Printf("   Artifact dir:  %s\n", info.ArtifactDir)
	if !info.Loaded {
		fmt.Printf("   Loaded:        no\n")
		if info.LastError != "" {
			fmt.Printf("   ⚠️ Last error:  %s\n", info.LastError)
		}
		fmt.Println()
		return
	}

	fmt.Printf("   Loaded:        yes (%s)\n", info.LoadedAt.Format(time.DateTime))
	fmt.Printf("   Model version: %s\n", info.ModelVersion)
	fmt.Printf("   Trained at:    %s\n", info.TrainedAt)
	fmt.Printf("   Features:      %d (%d categorical)\n", info.FeatureCount, len(info.CategoricalColumns))
	if len(info.RequiredInputFields) > 0 {
		fmt.Printf("   Required:      %s\n", strings.Join(info.RequiredInputFields, ", "))
	}
	if info.RegressorTrees > 0 {
		fmt.Printf("   Trees:         %d\n", info.RegressorTrees)
	}
	for _, column := range slices.Sorted(maps.Keys(info.EncoderCardinalities)) {
		fmt.Printf("   Encoder:       %s (%d categories)\n", column, info.EncoderCardinalities[column])
	}
	fmt.Println()
}
