package support

import (
	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/conf"
)

// Command creates the support parent command
func Command(settings *conf.Settings) *cobra.Command {
	supportCmd := &cobra.Command{
		Use:   "support",
		Short: "Commands related to support operations in FloraCast-Go",
	}

	supportCmd.AddCommand(CollectCommand(settings))

	return supportCmd
}
