package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/vouch/internal/domain"
	m "gooze.dev/pkg/vouch/internal/model"
)

var runTimeoutFlag string
var runShardFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run test plans",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(runShardFlag)

			return workflow.Run(commandContext(cmd), domain.RunArgs{
				Paths:           parsePaths(args),
				Exclude:         viper.GetStringSlice(excludeConfigKey),
				Reports:         m.Path(viper.GetString(outputFlagName)),
				Timeout:         runTimeout(),
				Verbose:         viper.GetBool(logVerboseKey),
				ShardIndex:      shardIndex,
				TotalShardCount: totalShards,
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runTimeoutFlag, timeoutFlagName, "t", viper.GetString(runTimeoutKey), "default per-test timeout (e.g. 500ms, 5s)")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutFlagName), runTimeoutKey)
	cmd.Flags().StringVarP(&runShardFlag, shardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
}

func parseShardFlag(shard string) (uint, uint) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return uint(index), uint(total)
}
