package suite

import (
	"context"
	"time"
)

const pathSeparator = " > "

// RunAll walks the tree depth-first in declaration order and returns a fresh
// report. Tests never run concurrently, and a failing test or hook never
// prevents its siblings from running. RunAll may be called again on the same
// engine.
func (e *Engine) RunAll(ctx context.Context) *AggregateReport {
	report := newReport()
	start := time.Now()

	for _, node := range e.suites {
		e.runSuite(ctx, node, "", report)
	}

	report.setDuration(time.Since(start))

	e.logger.Debug("run finished",
		"run_id", report.RunID,
		"passed", report.Passed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)

	return report
}

func (e *Engine) runSuite(ctx context.Context, node *SuiteNode, parentPath string, report *AggregateReport) {
	path := node.Name
	if parentPath != "" {
		path = parentPath + pathSeparator + node.Name
	}

	e.listener.SuiteStarted(path)

	// Reserve the pre-order slot before descendants append theirs.
	slot := len(report.Suites)
	report.Suites = append(report.Suites, SuiteResult{})

	result := SuiteResult{Name: node.Name, Path: path, Tests: []RunResult{}}

	e.runHooks(ctx, node, BeforeAll, path, &result)

	focus := node.focused()

	for _, tc := range node.Tests {
		var res RunResult

		switch {
		case focus && !tc.Only:
			continue
		case tc.Skip:
			res = RunResult{Name: tc.Name, Status: StatusSkipped}
		default:
			res = e.runTest(ctx, node, tc, path, &result)
		}

		result.add(res)
		report.count(res.Status)
		e.listener.TestFinished(path, res)
	}

	for _, child := range node.Children {
		e.runSuite(ctx, child, path, report)
	}

	e.runHooks(ctx, node, AfterAll, path, &result)

	report.Suites[slot] = result
}

// runTest runs the enclosing suite's beforeEach hooks, the raced body and
// then the afterEach hooks. invoke recovers panics, so the afterEach hooks
// are reached on every path.
func (e *Engine) runTest(ctx context.Context, node *SuiteNode, tc *TestCase, path string, suiteResult *SuiteResult) RunResult {
	res := RunResult{Name: tc.Name}

	err := e.runBeforeEach(ctx, node, path)
	if err == nil {
		start := time.Now()
		err = e.race(ctx, tc)
		res.Duration = time.Since(start)
		res.DurationMs = millis(res.Duration)
	}

	e.runHooks(ctx, node, AfterEach, path, suiteResult)

	if err != nil {
		res.Status = StatusFailed
		res.Error = NewFailure(err)

		e.logger.Debug("test failed", "suite", path, "test", tc.Name, "kind", res.Error.Kind, "error", err)

		return res
	}

	res.Status = StatusPassed
	res.Passed = true

	return res
}

// runBeforeEach stops at the first failing hook; the failure fails the test.
func (e *Engine) runBeforeEach(ctx context.Context, node *SuiteNode, path string) error {
	for i, hook := range node.Hooks(BeforeEach) {
		if err := invoke(ctx, hook); err != nil {
			e.logger.Error("beforeEach hook failed", "suite", path, "index", i, "error", err)
			return &HookError{Kind: BeforeEach, Index: i, Err: err}
		}
	}

	return nil
}

// runHooks runs every hook of kind, logging and recording each failure
// without stopping the remaining hooks.
func (e *Engine) runHooks(ctx context.Context, node *SuiteNode, kind HookKind, path string, suiteResult *SuiteResult) {
	for i, hook := range node.Hooks(kind) {
		err := invoke(ctx, hook)
		if err == nil {
			continue
		}

		e.logger.Error("hook failed", "suite", path, "hook", kind.String(), "index", i, "error", err)

		failure := HookFailure{
			Hook:    kind.String(),
			Failure: NewFailure(&HookError{Kind: kind, Index: i, Err: err}),
		}
		suiteResult.HookFailures = append(suiteResult.HookFailures, failure)
		e.listener.HookFailed(path, failure)
	}
}
