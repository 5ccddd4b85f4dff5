package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	examplePlanFlagName = "example"
	examplePlanDir      = "plans"
	examplePlanFileName = "example.plan.yaml"
)

const examplePlan = `suites:
  - name: Example
    before_each:
      - log: preparing
    tests:
      - name: compares numbers
        steps:
          - expect: {actual: 4, matcher: toBe, expected: 4}
      - name: matches text
        timeout: 500ms
        steps:
          - expect: {actual: "hello vouch", matcher: toMatch, pattern: "^hello"}
`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default vouch.yaml configuration file",
		Long: `Create a vouch.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. With --example a starter
plan is written to plans/example.plan.yaml as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := viper.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("Wrote %s\n", targetPath)

			withExample, err := cmd.Flags().GetBool(examplePlanFlagName)
			if err != nil || !withExample {
				return err
			}

			planPath, err := writeExamplePlan(configFolderPath)
			if err != nil {
				return err
			}

			cmd.Printf("Wrote %s\n", planPath)

			return nil
		},
	}

	cmd.Flags().Bool(examplePlanFlagName, false, "also write a starter plan to plans/example.plan.yaml")

	return cmd
}

func writeExamplePlan(root string) (string, error) {
	dir := filepath.Join(root, examplePlanDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plan directory: %w", err)
	}

	path := filepath.Join(dir, examplePlanFileName)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("example plan %s already exists", path)
	}

	if err != nil {
		return "", fmt.Errorf("create example plan: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(examplePlan); err != nil {
		return "", fmt.Errorf("write example plan: %w", err)
	}

	return path, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
