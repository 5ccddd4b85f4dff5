package suite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/vouch/pkg/expect"
)

func fail(context.Context) error { return errors.New("failed") }

func assertTotals(t *testing.T, report *AggregateReport) {
	t.Helper()
	assert.Equal(t, report.Passed+report.Failed+report.Skipped, report.Total)
}

func TestRunAll_SinglePassingTest(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("Math", func() {
		_ = eng.Test("adds", func(context.Context) error {
			return expect.That(2 + 2).ToBe(4)
		})
	}))

	report := eng.RunAll(context.Background())

	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Total)
	assert.True(t, report.OK())
	require.Len(t, report.Suites, 1)
	assert.Equal(t, "Math", report.Suites[0].Path)
	assert.True(t, report.Suites[0].Tests[0].Passed)
	assert.NotEmpty(t, report.RunID)
}

func TestRunAll_CountsEveryNonSkippedTest(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		for i := 0; i < 4; i++ {
			_ = eng.Test(fmt.Sprintf("t%d", i), pass)
		}
		_ = eng.Test("broken", fail)
		_ = eng.Skip("later", pass)
	}))

	report := eng.RunAll(context.Background())

	assert.Equal(t, 4, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 6, report.Total)
	assertTotals(t, report)
	assert.False(t, report.OK())
}

func TestRunAll_FocusExcludesUnfocusedTests(t *testing.T) {
	var ran []string

	record := func(name string) Body {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}

	eng := New()
	require.NoError(t, eng.Describe("parent", func() {
		_ = eng.Only("focused", record("focused"))
		_ = eng.Test("unfocused", record("unfocused"))
		_ = eng.Test("skipped and unfocused", record("skipped and unfocused"), WithSkip())

		_ = eng.Describe("child", func() {
			_ = eng.Test("a", record("a"))
			_ = eng.Test("b", record("b"))
		})
	}))

	report := eng.RunAll(context.Background())

	assert.Equal(t, []string{"focused", "a", "b"}, ran)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 0, report.Skipped)
	assertTotals(t, report)

	require.Len(t, report.Suites, 2)
	assert.Len(t, report.Suites[0].Tests, 1)
	assert.Equal(t, "parent > child", report.Suites[1].Path)
}

func TestRunAll_OnlyExampleYieldsOneTest(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("first", pass, WithOnly())
		_ = eng.Test("second", pass)
	}))

	report := eng.RunAll(context.Background())
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Passed)
}

func TestRunAll_SkipWinsOverOnly(t *testing.T) {
	called := false

	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("both", func(context.Context) error {
			called = true
			return nil
		}, WithSkip(), WithOnly())
	}))

	report := eng.RunAll(context.Background())

	assert.False(t, called)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, StatusSkipped, report.Suites[0].Tests[0].Status)
}

func TestRunAll_HookOrder(t *testing.T) {
	var events []string

	log := func(event string) Body {
		return func(context.Context) error {
			events = append(events, event)
			return nil
		}
	}

	eng := New()
	require.NoError(t, eng.Describe("outer", func() {
		_ = eng.BeforeAll(log("outer:beforeAll"))
		_ = eng.AfterAll(log("outer:afterAll"))
		_ = eng.BeforeEach(log("outer:beforeEach"))
		_ = eng.AfterEach(log("outer:afterEach"))
		_ = eng.Test("t1", log("outer:t1"))

		_ = eng.Describe("inner", func() {
			_ = eng.BeforeEach(log("inner:beforeEach"))
			_ = eng.Test("t2", log("inner:t2"))
		})

		_ = eng.Test("t3", log("outer:t3"))
		_ = eng.Skip("t4", log("outer:t4"))
	}))

	eng.RunAll(context.Background())

	assert.Equal(t, []string{
		"outer:beforeAll",
		"outer:beforeEach", "outer:t1", "outer:afterEach",
		"outer:beforeEach", "outer:t3", "outer:afterEach",
		"inner:beforeEach", "inner:t2",
		"outer:afterAll",
	}, events)
}

func TestRunAll_BeforeEachFailureStillRunsAfterEach(t *testing.T) {
	afterEach := 0
	bodyRan := false

	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.BeforeEach(fail)
		_ = eng.AfterEach(func(context.Context) error {
			afterEach++
			return nil
		})
		_ = eng.Test("t", func(context.Context) error {
			bodyRan = true
			return nil
		})
	}))

	report := eng.RunAll(context.Background())

	assert.False(t, bodyRan)
	assert.Equal(t, 1, afterEach)
	assert.Equal(t, 1, report.Failed)

	res := report.Suites[0].Tests[0]
	require.NotNil(t, res.Error)
	assert.Equal(t, KindHook, res.Error.Kind)
}

func TestRunAll_BestEffortHooks(t *testing.T) {
	var calls []string

	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.BeforeAll(fail)
		_ = eng.BeforeAll(func(context.Context) error {
			calls = append(calls, "beforeAll 2")
			return nil
		})
		_ = eng.AfterEach(func(context.Context) error { panic("afterEach 1") })
		_ = eng.AfterEach(func(context.Context) error {
			calls = append(calls, "afterEach 2")
			return nil
		})
		_ = eng.AfterAll(fail)
		_ = eng.AfterAll(func(context.Context) error {
			calls = append(calls, "afterAll 2")
			return nil
		})
		_ = eng.Test("t", pass)
	}))

	report := eng.RunAll(context.Background())

	assert.Equal(t, []string{"beforeAll 2", "afterEach 2", "afterAll 2"}, calls)
	assert.Equal(t, 1, report.Passed)

	hooks := report.Suites[0].HookFailures
	require.Len(t, hooks, 3)
	assert.Equal(t, "beforeAll", hooks[0].Hook)
	assert.Equal(t, "afterEach", hooks[1].Hook)
	assert.Equal(t, KindHook, hooks[1].Failure.Kind)
	assert.Equal(t, "afterAll", hooks[2].Hook)
}

func TestRunAll_Timeout(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("cooperative", func(ctx context.Context) error {
			select {
			case <-time.After(time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, WithTimeout(20*time.Millisecond))

		_ = eng.Test("stubborn", func(context.Context) error {
			time.Sleep(300 * time.Millisecond)
			return nil
		}, WithTimeout(20*time.Millisecond))
	}))

	start := time.Now()
	report := eng.RunAll(context.Background())

	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, 2, report.Failed)

	for _, res := range report.Suites[0].Tests {
		require.NotNil(t, res.Error)
		assert.Equal(t, KindTimeout, res.Error.Kind)

		var timeout *TimeoutError
		assert.ErrorAs(t, res.Error.Err, &timeout)
	}
}

func TestRunAll_BusyBodyOverrunIsTimeout(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		for i := range 20 {
			_ = eng.Test(fmt.Sprintf("busy %d", i), func(context.Context) error {
				start := time.Now()
				for time.Since(start) < 3*time.Millisecond {
				}

				return nil
			}, WithTimeout(time.Millisecond))
		}
	}))

	report := eng.RunAll(context.Background())
	assert.Equal(t, 20, report.Failed)
	assert.Zero(t, report.Passed)

	for _, res := range report.Suites[0].Tests {
		require.NotNil(t, res.Error)
		assert.Equal(t, KindTimeout, res.Error.Kind, res.Name)
	}
}

func TestRunAll_QuickBodyBeatsTimeout(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		for i := range 20 {
			_ = eng.Test(fmt.Sprintf("quick %d", i), func(context.Context) error {
				return nil
			}, WithTimeout(time.Second))
		}
	}))

	report := eng.RunAll(context.Background())
	assert.Equal(t, 20, report.Passed)
}

func TestSettle(t *testing.T) {
	tc := &TestCase{Name: "t", Timeout: time.Millisecond}
	boom := errors.New("boom")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		parent  context.Context
		out     settled
		timeout bool
		want    error
	}{
		{name: "in time", parent: context.Background(), out: settled{}},
		{name: "in time with error", parent: context.Background(), out: settled{err: boom}, want: boom},
		{name: "overran with nil", parent: context.Background(), out: settled{overran: true}, timeout: true},
		{name: "overran with error", parent: context.Background(), out: settled{err: boom, overran: true}, timeout: true},
		{name: "parent cancelled", parent: cancelled, out: settled{err: context.Canceled, overran: true}, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := settle(tt.parent, tc, tt.out)

			if tt.timeout {
				var timeout *TimeoutError
				require.ErrorAs(t, err, &timeout)
				assert.Equal(t, time.Millisecond, timeout.Timeout)

				return
			}

			assert.Equal(t, tt.want, err)
		})
	}
}

func TestRunAll_FailureKinds(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("assertion", func(context.Context) error {
			return expect.That(1).ToEqual(2)
		})
		_ = eng.Test("panic", func(context.Context) error {
			panic("kaboom")
		})
		_ = eng.Test("panicking assertion", func(context.Context) error {
			panic(expect.That(1).ToBe(2))
		})
		_ = eng.Test("plain error", fail)
	}))

	report := eng.RunAll(context.Background())
	tests := report.Suites[0].Tests
	require.Len(t, tests, 4)

	assert.Equal(t, KindAssertion, tests[0].Error.Kind)
	assert.Contains(t, tests[0].Error.Origin, "runner_test.go")
	assert.Equal(t, KindPanic, tests[1].Error.Kind)
	assert.NotEmpty(t, tests[1].Error.Trace)
	assert.Equal(t, KindAssertion, tests[2].Error.Kind)
	assert.Equal(t, KindError, tests[3].Error.Kind)
	assert.Equal(t, "failed", tests[3].Error.Message)
}

func TestRunAll_CancelledParentContext(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("t", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := eng.RunAll(ctx)
	assert.Equal(t, 1, report.Failed)
	assert.NotEqual(t, KindTimeout, report.Suites[0].Tests[0].Error.Kind)
}

func TestRunAll_IsRepeatable(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.Test("t", pass)
	}))

	first := eng.RunAll(context.Background())
	second := eng.RunAll(context.Background())

	assert.Equal(t, first.Total, second.Total)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunAll_PreOrderSuites(t *testing.T) {
	eng := New()
	require.NoError(t, eng.Describe("a", func() {
		_ = eng.Describe("b", func() {
			_ = eng.Describe("c", func() {})
		})
		_ = eng.Describe("d", func() {})
	}))
	require.NoError(t, eng.Describe("e", func() {}))

	report := eng.RunAll(context.Background())

	paths := make([]string, 0, len(report.Suites))
	for _, s := range report.Suites {
		paths = append(paths, s.Path)
	}

	assert.Equal(t, []string{"a", "a > b", "a > b > c", "a > d", "e"}, paths)
}

type recordingListener struct {
	suites []string
	tests  []string
	hooks  []string
}

func (l *recordingListener) SuiteStarted(path string) {
	l.suites = append(l.suites, path)
}

func (l *recordingListener) TestFinished(path string, result RunResult) {
	l.tests = append(l.tests, path+"/"+result.Name+"="+string(result.Status))
}

func (l *recordingListener) HookFailed(path string, failure HookFailure) {
	l.hooks = append(l.hooks, path+"/"+failure.Hook)
}

func TestRunAll_NotifiesListener(t *testing.T) {
	listener := &recordingListener{}

	eng := New(WithListener(listener))
	require.NoError(t, eng.Describe("s", func() {
		_ = eng.AfterAll(fail)
		_ = eng.Test("ok", pass)
		_ = eng.Skip("skip", pass)
	}))

	eng.RunAll(context.Background())

	assert.Equal(t, []string{"s"}, listener.suites)
	assert.Equal(t, []string{"s/ok=passed", "s/skip=skipped"}, listener.tests)
	assert.Equal(t, []string{"s/afterAll"}, listener.hooks)
}

func TestMerge(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := &AggregateReport{Passed: 2, Failed: 1, Total: 3, StartedAt: early.Add(time.Hour), DurationMs: 10,
		Suites: []SuiteResult{{Name: "a"}}}
	b := &AggregateReport{Passed: 1, Skipped: 2, Total: 3, StartedAt: early, Duration: 5 * time.Millisecond,
		Suites: []SuiteResult{{Name: "b"}}}

	merged := Merge(a, nil, b)

	assert.Equal(t, 3, merged.Passed)
	assert.Equal(t, 1, merged.Failed)
	assert.Equal(t, 2, merged.Skipped)
	assert.Equal(t, 6, merged.Total)
	assert.Equal(t, early, merged.StartedAt)
	assert.InDelta(t, 15.0, merged.DurationMs, 0.001)
	require.Len(t, merged.Suites, 2)
	assert.Equal(t, "a", merged.Suites[0].Name)
}
