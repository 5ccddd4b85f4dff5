// Package controller provides output adapters for displaying test runs.
package controller

import (
	"context"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeView
	ModeList
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode    StartMode
	verbose bool
}

// WithRunMode streams test results while suites execute.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithViewMode displays a previously saved report.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// WithListMode summarizes plan files without running them.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithVerbose prints passing and skipped tests as well as failures.
func WithVerbose(verbose bool) StartOption {
	return func(c *StartConfig) {
		c.verbose = verbose
	}
}

// UI defines the interface for displaying plans and reports.
// It receives progress from the engine through suite.Listener.
type UI interface {
	suite.Listener

	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayPlans(ctx context.Context, plans []m.PlanFile, shardIndex int, shardCount int)
	DisplayReport(ctx context.Context, report *suite.AggregateReport) error
	DisplayReportSaved(ctx context.Context, path m.Path)
}
