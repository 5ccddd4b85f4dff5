package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

const (
	passLabel = "PASS"
	failLabel = "FAIL"
	skipLabel = "SKIP"
	hookLabel = "HOOK"
)

type styles struct {
	pass  lipgloss.Style
	fail  lipgloss.Style
	skip  lipgloss.Style
	suite lipgloss.Style
	faint lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		pass:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		skip:  r.NewStyle().Foreground(lipgloss.Color("3")),
		suite: r.NewStyle().Bold(true),
		faint: r.NewStyle().Faint(true),
	}
}

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd    *cobra.Command
	config StartConfig
	styles styles
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, styles: newStyles(cmd.OutOrStdout())}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.config = StartConfig{}
	for _, option := range options {
		option(&s.config)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayPlans lists the plan files about to run.
func (s *SimpleUI) DisplayPlans(ctx context.Context, plans []m.PlanFile, shardIndex int, shardCount int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if s.config.mode == ModeList {
		s.printf("\n%s", renderPlanTable(plans))
		return
	}

	if shardCount > 1 {
		s.printf("Running %d plan file(s) (Shard %d/%d)\n", len(plans), shardIndex, shardCount)
	} else {
		s.printf("Running %d plan file(s)\n", len(plans))
	}

	if !s.config.verbose {
		return
	}

	for _, plan := range plans {
		s.printf("  %s\n", s.styles.faint.Render(string(plan.Path)))
	}
}

// SuiteStarted implements suite.Listener.
func (s *SimpleUI) SuiteStarted(path string) {
	if !s.config.verbose {
		return
	}

	s.printf("%s\n", s.styles.suite.Render(path))
}

// TestFinished implements suite.Listener.
func (s *SimpleUI) TestFinished(path string, result suite.RunResult) {
	switch result.Status {
	case suite.StatusFailed:
		s.printf("%s %s > %s\n", s.styles.fail.Render(failLabel), path, result.Name)

		if result.Error != nil {
			s.printf("%s\n", indent(result.Error.Message, "     "))
		}
	case suite.StatusSkipped:
		if s.config.verbose {
			s.printf("%s %s > %s\n", s.styles.skip.Render(skipLabel), path, result.Name)
		}
	default:
		if s.config.verbose {
			s.printf("%s %s > %s %s\n", s.styles.pass.Render(passLabel), path, result.Name,
				s.styles.faint.Render(fmt.Sprintf("(%.1fms)", result.DurationMs)))
		}
	}
}

// HookFailed implements suite.Listener.
func (s *SimpleUI) HookFailed(path string, failure suite.HookFailure) {
	msg := ""
	if failure.Failure != nil {
		msg = failure.Failure.Message
	}

	s.printf("%s %s %s hook: %s\n", s.styles.fail.Render(hookLabel), path, failure.Hook, msg)
}

// DisplayReport prints the per-suite summary table followed by every failure.
func (s *SimpleUI) DisplayReport(ctx context.Context, report *suite.AggregateReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil {
		return nil
	}

	s.printf("\n%s", renderSummaryTable(report))

	failures := collectFailures(report)
	if len(failures) > 0 {
		s.printf("\n%s\n", s.styles.fail.Render("Failures:"))

		for i, f := range failures {
			s.printf("\n%d) %s\n", i+1, f.title)
			s.printf("   [%s] %s\n", f.failure.Kind, strings.ReplaceAll(f.failure.Message, "\n", "\n   "))

			if f.failure.Origin != "" {
				s.printf("   %s\n", s.styles.faint.Render("at "+f.failure.Origin))
			}
		}
	}

	status := s.styles.pass.Render(passLabel)
	if !report.OK() {
		status = s.styles.fail.Render(failLabel)
	}

	s.printf("\n%s %d passed, %d failed, %d skipped, %d total (%.1fms)\n",
		status, report.Passed, report.Failed, report.Skipped, report.Total, report.DurationMs)

	if s.config.verbose && report.RunID != "" {
		s.printf("%s\n", s.styles.faint.Render("run "+report.RunID))
	}

	return nil
}

// DisplayReportSaved prints where the report was written.
func (s *SimpleUI) DisplayReportSaved(ctx context.Context, path m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Report saved to %s\n", path)
}

type failureLine struct {
	title   string
	failure *suite.Failure
}

func collectFailures(report *suite.AggregateReport) []failureLine {
	var lines []failureLine

	for _, result := range report.Suites {
		for _, hook := range result.HookFailures {
			if hook.Failure == nil {
				continue
			}

			lines = append(lines, failureLine{
				title:   fmt.Sprintf("%s (%s hook)", result.Path, hook.Hook),
				failure: hook.Failure,
			})
		}

		for _, test := range result.Tests {
			if test.Status != suite.StatusFailed || test.Error == nil {
				continue
			}

			lines = append(lines, failureLine{
				title:   result.Path + " > " + test.Name,
				failure: test.Error,
			})
		}
	}

	return lines
}

func renderSummaryTable(report *suite.AggregateReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Suite", "Passed", "Failed", "Skipped"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	for _, result := range report.Suites {
		table.Append([]string{
			result.Path,
			fmt.Sprintf("%d", result.Passed),
			fmt.Sprintf("%d", result.Failed),
			fmt.Sprintf("%d", result.Skipped),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Suites %d", len(report.Suites)),
		fmt.Sprintf("%d", report.Passed),
		fmt.Sprintf("%d", report.Failed),
		fmt.Sprintf("%d", report.Skipped),
	})

	table.Render()

	return tableBuffer.String()
}

func renderPlanTable(plans []m.PlanFile) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Suites", "Tests"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER})

	totalSuites, totalTests := 0, 0

	for _, plan := range plans {
		suites, tests := plan.Plan.Counts()
		totalSuites += suites
		totalTests += tests

		table.Append([]string{string(plan.Path), fmt.Sprintf("%d", suites), fmt.Sprintf("%d", tests)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(plans)),
		fmt.Sprintf("%d", totalSuites),
		fmt.Sprintf("%d", totalTests),
	})

	table.Render()

	return tableBuffer.String()
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}

	return strings.Join(lines, "\n")
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
