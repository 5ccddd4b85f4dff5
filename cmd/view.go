package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/vouch/internal/domain"
	m "gooze.dev/pkg/vouch/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a previously saved run report",
		Long:  "View the report.yaml saved in a reports directory by run or merge.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))

			return workflow.View(commandContext(cmd), domain.ViewArgs{
				Reports: reportsPath,
				Verbose: viper.GetBool(logVerboseKey),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
