package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mgarzon/floracast-go/cmd/batch"
	"github.com/mgarzon/floracast-go/cmd/benchmark"
	"github.com/mgarzon/floracast-go/cmd/modelinfo"
	"github.com/mgarzon/floracast-go/cmd/modelsync"
	"github.com/mgarzon/floracast-go/cmd/predict"
	"github.com/mgarzon/floracast-go/cmd/support"
	"github.com/mgarzon/floracast-go/cmd/validate"
	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "floracast",
		Short:   "FloraCast-Go propagation forecasting CLI",
		Version: fmt.Sprintf("%s (built %s)", settings.Version, settings.BuildDate),
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		predict.Command(settings),
		batch.Command(settings),
		validate.Command(settings),
		modelinfo.Command(settings),
		modelsync.Command(settings),
		benchmark.Command(settings),
		support.Command(settings),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			settings.Forecast.Debug = true
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		logging.Warn("Error binding global flags", "error", err)
	}
}
