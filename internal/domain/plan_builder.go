package domain

import (
	"context"
	"errors"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/suite"
)

// PlannedSuite is a top-level suite together with the file it came from.
type PlannedSuite struct {
	File  m.Path
	Suite m.Suite
}

// ShardPlans flattens the top-level suites of plans and keeps those whose
// position modulo totalShardCount equals shardIndex. A zero shard count
// keeps everything.
func ShardPlans(plans []m.PlanFile, shardIndex uint, totalShardCount uint) []PlannedSuite {
	var (
		planned  []PlannedSuite
		position uint
	)

	for _, plan := range plans {
		for _, s := range plan.Plan.Suites {
			if totalShardCount == 0 || position%totalShardCount == shardIndex {
				planned = append(planned, PlannedSuite{File: plan.Path, Suite: s})
			}

			position++
		}
	}

	return planned
}

// Register declares every planned suite on engine. Structural errors from
// all suites are joined.
func Register(engine *suite.Engine, planned []PlannedSuite) error {
	var errs []error

	for _, p := range planned {
		if err := registerSuite(engine, p.File, p.Suite, ""); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func registerSuite(engine *suite.Engine, file m.Path, s m.Suite, parentPath string) error {
	path := joinPath(parentPath, s.Name)

	// Errors raised inside the body are collected by the engine and
	// returned from Describe.
	return engine.Describe(s.Name, func() {
		hooks := []struct {
			kind  suite.HookKind
			steps []m.Step
		}{
			{suite.BeforeAll, s.BeforeAll},
			{suite.AfterAll, s.AfterAll},
			{suite.BeforeEach, s.BeforeEach},
			{suite.AfterEach, s.AfterEach},
		}

		for _, hook := range hooks {
			if len(hook.steps) == 0 {
				continue
			}

			where := newLocation(file, path, hook.kind.String()+" hook")
			steps := hook.steps

			_ = engine.Hook(hook.kind, func(ctx context.Context) error {
				return runSteps(ctx, where, steps)
			})
		}

		for _, t := range s.Tests {
			where := newLocation(file, path, t.Name)
			steps := t.Steps

			_ = engine.Test(t.Name, func(ctx context.Context) error {
				return runSteps(ctx, where, steps)
			}, testOptions(t)...)
		}

		for _, child := range s.Suites {
			_ = registerSuite(engine, file, child, path)
		}
	})
}

func testOptions(t m.Test) []suite.TestOption {
	var opts []suite.TestOption

	if t.Skip {
		opts = append(opts, suite.WithSkip())
	}

	if t.Only {
		opts = append(opts, suite.WithOnly())
	}

	if t.Timeout > 0 {
		opts = append(opts, suite.WithTimeout(t.Timeout))
	}

	return opts
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + " > " + name
}
