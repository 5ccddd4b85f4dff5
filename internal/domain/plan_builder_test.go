package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

func expectStep(actual, expected any) m.Step {
	return m.Step{Expect: &m.Check{Matcher: "toBe", Actual: actual, Expected: expected}}
}

func suitesNamed(names ...string) []m.Suite {
	suites := make([]m.Suite, 0, len(names))
	for _, name := range names {
		suites = append(suites, m.Suite{Name: name})
	}

	return suites
}

func TestShardPlans(t *testing.T) {
	plans := []m.PlanFile{
		{Path: "a.plan.yaml", Plan: m.Plan{Suites: suitesNamed("A1", "A2")}},
		{Path: "b.plan.yaml", Plan: m.Plan{Suites: suitesNamed("B1")}},
	}

	names := func(planned []PlannedSuite) []string {
		out := []string{}
		for _, p := range planned {
			out = append(out, p.Suite.Name)
		}

		return out
	}

	assert.Equal(t, []string{"A1", "A2", "B1"}, names(ShardPlans(plans, 0, 0)))
	assert.Equal(t, []string{"A1", "A2", "B1"}, names(ShardPlans(plans, 0, 1)))
	assert.Equal(t, []string{"A1", "B1"}, names(ShardPlans(plans, 0, 2)))
	assert.Equal(t, []string{"A2"}, names(ShardPlans(plans, 1, 2)))
	assert.Empty(t, ShardPlans(plans, 5, 4))

	planned := ShardPlans(plans, 0, 2)
	assert.Equal(t, m.Path("b.plan.yaml"), planned[1].File)
}

func TestRegister_BuildsTree(t *testing.T) {
	planned := []PlannedSuite{{
		File: "math.plan.yaml",
		Suite: m.Suite{
			Name:       "Math",
			BeforeAll:  []m.Step{{Log: "once"}},
			BeforeEach: []m.Step{{Log: "each"}, {Log: "again"}},
			Tests: []m.Test{
				{Name: "adds", Steps: []m.Step{expectStep(2, 2)}},
				{Name: "later", Skip: true, Steps: []m.Step{{Fail: "skipped"}}},
				{Name: "slow", Timeout: time.Second, Steps: []m.Step{{Log: "ok"}}},
			},
			Suites: []m.Suite{{
				Name:  "Nested",
				Tests: []m.Test{{Name: "focused", Only: true, Steps: []m.Step{{Log: "ok"}}}},
			}},
		},
	}}

	engine := suite.New()
	require.NoError(t, Register(engine, planned))

	require.Len(t, engine.Suites(), 1)
	math := engine.Suites()[0]
	assert.Equal(t, "Math", math.Name)
	assert.Len(t, math.Hooks(suite.BeforeAll), 1)
	assert.Len(t, math.Hooks(suite.BeforeEach), 1)
	assert.Empty(t, math.Hooks(suite.AfterEach))

	require.Len(t, math.Tests, 3)
	assert.True(t, math.Tests[1].Skip)
	assert.Equal(t, time.Second, math.Tests[2].Timeout)
	assert.Equal(t, suite.DefaultTimeout, math.Tests[0].Timeout)

	require.Len(t, math.Children, 1)
	assert.True(t, math.Children[0].Tests[0].Only)
}

func TestRegister_RunsPlan(t *testing.T) {
	planned := []PlannedSuite{{
		File: "math.plan.yaml",
		Suite: m.Suite{
			Name:      "Math",
			AfterEach: []m.Step{{Fail: "cleanup"}},
			Tests: []m.Test{
				{Name: "adds", Steps: []m.Step{expectStep(2, 2)}},
				{Name: "breaks", Steps: []m.Step{{Log: "first"}, expectStep(1, 2)}},
				{Name: "hangs", Timeout: 20 * time.Millisecond, Steps: []m.Step{{Sleep: time.Minute}}},
				{Name: "later", Skip: true, Steps: []m.Step{{Fail: "skipped"}}},
			},
		},
	}}

	engine := suite.New()
	require.NoError(t, Register(engine, planned))

	report := engine.RunAll(context.Background())

	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Skipped)

	tests := report.Suites[0].Tests
	assert.Equal(t, suite.KindAssertion, tests[1].Error.Kind)
	assert.Equal(t, "math.plan.yaml: Math > breaks (step 2)", tests[1].Error.Origin)
	assert.Equal(t, suite.KindTimeout, tests[2].Error.Kind)

	// afterEach ran after each of the three executed tests.
	require.Len(t, report.Suites[0].HookFailures, 3)
	assert.Equal(t, "afterEach", report.Suites[0].HookFailures[0].Hook)
	assert.Contains(t, report.Suites[0].HookFailures[0].Failure.Message, "Math > afterEach hook (step 1)")
}

func TestRegister_JoinsStructuralErrors(t *testing.T) {
	planned := []PlannedSuite{
		{File: "a.plan.yaml", Suite: m.Suite{Name: "A", Tests: []m.Test{{Name: "", Steps: []m.Step{{Log: "x"}}}}}},
		{File: "b.plan.yaml", Suite: m.Suite{Name: ""}},
	}

	err := Register(suite.New(), planned)
	require.Error(t, err)

	var structural *suite.StructuralError
	assert.ErrorAs(t, err, &structural)
}
