package suite

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"gooze.dev/pkg/vouch/pkg/expect"
)

// Status is the outcome of a single test.
type Status string

// Available Status values.
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Failure describes why a test or hook failed.
type Failure struct {
	Kind    FailureKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Origin  string      `json:"origin,omitempty" yaml:"origin,omitempty"`
	Trace   string      `json:"trace,omitempty" yaml:"trace,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// RunResult is the outcome of one test.
type RunResult struct {
	Name       string        `json:"name" yaml:"name"`
	Status     Status        `json:"status" yaml:"status"`
	Passed     bool          `json:"passed" yaml:"passed"`
	Error      *Failure      `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"-" yaml:"-"`
	DurationMs float64       `json:"duration_ms" yaml:"duration_ms"`
}

// HookFailure records a best-effort hook that failed without failing a test.
type HookFailure struct {
	Hook    string   `json:"hook" yaml:"hook"`
	Failure *Failure `json:"failure" yaml:"failure"`
}

// SuiteResult holds the outcomes of the direct tests of one suite.
type SuiteResult struct {
	Name         string        `json:"name" yaml:"name"`
	Path         string        `json:"path" yaml:"path"`
	Passed       int           `json:"passed" yaml:"passed"`
	Failed       int           `json:"failed" yaml:"failed"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	Tests        []RunResult   `json:"tests" yaml:"tests"`
	HookFailures []HookFailure `json:"hook_failures,omitempty" yaml:"hook_failures,omitempty"`
}

// AggregateReport is the result of one RunAll. Suites are listed in
// depth-first pre-order. Total always equals Passed+Failed+Skipped.
type AggregateReport struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Passed     int           `json:"passed" yaml:"passed"`
	Failed     int           `json:"failed" yaml:"failed"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	Total      int           `json:"total" yaml:"total"`
	Duration   time.Duration `json:"-" yaml:"-"`
	DurationMs float64       `json:"duration_ms" yaml:"duration_ms"`
	Suites     []SuiteResult `json:"suites" yaml:"suites"`
}

func newReport() *AggregateReport {
	return &AggregateReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Suites:    []SuiteResult{},
	}
}

// OK reports whether no test failed.
func (r *AggregateReport) OK() bool {
	return r.Failed == 0
}

func (r *AggregateReport) count(status Status) {
	switch status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}

	r.Total++
}

func (r *AggregateReport) setDuration(d time.Duration) {
	r.Duration = d
	r.DurationMs = millis(d)
}

// Merge combines reports into a new one under a fresh run ID. Suites keep
// the order of the inputs, StartedAt is the earliest start and the duration
// is the sum of the input durations.
func Merge(reports ...*AggregateReport) *AggregateReport {
	merged := newReport()

	var total time.Duration

	first := true

	for _, report := range reports {
		if report == nil {
			continue
		}

		if first || report.StartedAt.Before(merged.StartedAt) {
			merged.StartedAt = report.StartedAt
			first = false
		}

		merged.Passed += report.Passed
		merged.Failed += report.Failed
		merged.Skipped += report.Skipped
		merged.Suites = append(merged.Suites, report.Suites...)

		if report.Duration > 0 {
			total += report.Duration
		} else {
			total += time.Duration(report.DurationMs * float64(time.Millisecond))
		}
	}

	merged.Total = merged.Passed + merged.Failed + merged.Skipped
	merged.setDuration(total)

	return merged
}

func (s *SuiteResult) add(result RunResult) {
	switch result.Status {
	case StatusPassed:
		s.Passed++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}

	s.Tests = append(s.Tests, result)
}

// NewFailure classifies err into a Failure descriptor.
func NewFailure(err error) *Failure {
	if err == nil {
		return nil
	}

	f := &Failure{Kind: KindError, Message: err.Error(), Err: err}

	var (
		timeoutErr *TimeoutError
		hookErr    *HookError
		assertErr  *expect.Failure
		panicErr   *PanicError
	)

	switch {
	case errors.As(err, &timeoutErr):
		f.Kind = KindTimeout
	case errors.As(err, &hookErr):
		f.Kind = KindHook
	case errors.As(err, &assertErr):
		f.Kind = KindAssertion
	case errors.As(err, &panicErr):
		f.Kind = KindPanic
	}

	if errors.As(err, &assertErr) {
		f.Origin = assertErr.Origin
	}

	if errors.As(err, &panicErr) {
		f.Trace = string(panicErr.Stack)
	}

	return f
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
