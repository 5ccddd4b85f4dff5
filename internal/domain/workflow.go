// Package domain wires plan discovery, the suite engine and report storage
// into the workflows behind the CLI commands.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"gooze.dev/pkg/vouch/internal/adapter"
	"gooze.dev/pkg/vouch/internal/controller"
	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

var (
	// ErrTestsFailed is returned by Run when at least one test failed.
	ErrTestsFailed = errors.New("tests failed")
	// ErrNoPlans is returned when no plan file matched the given paths.
	ErrNoPlans = errors.New("no plan files found")
	// ErrNoShards is returned by Merge when the reports directory holds no shard reports.
	ErrNoShards = errors.New("no shard reports found")
)

// RunArgs contains the arguments for running plan files.
type RunArgs struct {
	Paths           []m.Path
	Exclude         []string
	Reports         m.Path
	Timeout         time.Duration
	Verbose         bool
	ShardIndex      uint
	TotalShardCount uint
}

// ListArgs contains the arguments for listing plan files.
type ListArgs struct {
	Paths   []m.Path
	Exclude []string
}

// ViewArgs contains the arguments for displaying a saved report.
type ViewArgs struct {
	Reports m.Path
	Verbose bool
}

// MergeArgs contains the arguments for merging shard reports.
type MergeArgs struct {
	Reports m.Path
}

// Workflow defines the operations exposed to the CLI.
type Workflow interface {
	List(ctx context.Context, args ListArgs) error
	Run(ctx context.Context, args RunArgs) error
	View(ctx context.Context, args ViewArgs) error
	Merge(ctx context.Context, args MergeArgs) error
}

type workflow struct {
	adapter.PlanStore
	adapter.ReportStore
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(planStore adapter.PlanStore, reportStore adapter.ReportStore, ui controller.UI) Workflow {
	return &workflow{
		PlanStore:   planStore,
		ReportStore: reportStore,
		UI:          ui,
	}
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	plans, err := w.collectPlans(ctx, args.Paths, args.Exclude)
	if err != nil {
		return err
	}

	w.DisplayPlans(ctx, plans, 0, 1)

	return nil
}

func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	if err := w.Start(ctx, controller.WithRunMode(), controller.WithVerbose(args.Verbose)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	plans, err := w.collectPlans(ctx, args.Paths, args.Exclude)
	if err != nil {
		return err
	}

	opts := []suite.Option{suite.WithLogger(slog.Default()), suite.WithListener(w.UI)}
	if args.Timeout > 0 {
		opts = append(opts, suite.WithDefaultTimeout(args.Timeout))
	}

	engine := suite.New(opts...)

	if err := Register(engine, ShardPlans(plans, args.ShardIndex, args.TotalShardCount)); err != nil {
		return fmt.Errorf("register plans: %w", err)
	}

	w.DisplayPlans(ctx, plans, int(args.ShardIndex), int(args.TotalShardCount))

	report := engine.RunAll(ctx)

	if err := w.DisplayReport(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if args.Reports != "" {
		target := reportPath(args)
		if err := w.SaveReport(target, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}

		w.DisplayReportSaved(ctx, target)
	}

	if !report.OK() {
		return ErrTestsFailed
	}

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(m.Path(filepath.Join(string(args.Reports), adapter.ReportFileName)))
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode(), controller.WithVerbose(args.Verbose)); err != nil {
		return err
	}
	defer w.Close(ctx)

	return w.DisplayReport(ctx, report)
}

func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	shards, err := w.LoadShards(ctx, args.Reports)
	if err != nil {
		return fmt.Errorf("load shards: %w", err)
	}

	if len(shards) == 0 {
		return fmt.Errorf("%w in %s", ErrNoShards, args.Reports)
	}

	merged := suite.Merge(shards...)
	target := m.Path(filepath.Join(string(args.Reports), adapter.ReportFileName))

	if err := w.SaveReport(target, merged); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("merged shard reports", "shards", len(shards), "run_id", merged.RunID)

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		return err
	}
	defer w.Close(ctx)

	if err := w.DisplayReport(ctx, merged); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.DisplayReportSaved(ctx, target)

	return nil
}

func (w *workflow) collectPlans(ctx context.Context, paths []m.Path, exclude []string) ([]m.PlanFile, error) {
	files, err := w.Collect(ctx, paths, exclude)
	if err != nil {
		return nil, fmt.Errorf("collect plans: %w", err)
	}

	if len(files) == 0 {
		return nil, ErrNoPlans
	}

	plans, err := w.Load(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	return plans, nil
}

func reportPath(args RunArgs) m.Path {
	dir := string(args.Reports)
	if args.TotalShardCount > 1 {
		dir = filepath.Join(dir, adapter.ShardDirPrefix+strconv.FormatUint(uint64(args.ShardIndex), 10))
	}

	return m.Path(filepath.Join(dir, adapter.ReportFileName))
}
