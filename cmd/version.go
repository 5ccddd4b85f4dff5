package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const unknownVersion = "(devel)"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the vouch version",
		Long:  "Displays the vouch build version, the Go toolchain it was built with and the config schema version it writes.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, _ := debug.ReadBuildInfo()

			for _, line := range versionLines(info) {
				cmd.Println(line)
			}
		},
	}
}

// versionLines renders build info; a nil info reports an unknown build.
func versionLines(info *debug.BuildInfo) []string {
	version, goVersion := unknownVersion, "unknown"

	if info != nil {
		if info.Main.Version != "" {
			version = info.Main.Version
		}

		goVersion = info.GoVersion
	}

	return []string{
		"vouch\t" + version,
		"go\t" + goVersion,
		fmt.Sprintf("config\tv%d", currentConfigVersion),
	}
}

var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
