package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	m "gooze.dev/pkg/vouch/internal/model"
	"gooze.dev/pkg/vouch/pkg/expect"
)

var (
	// ErrStepFailed is wrapped by the error of a fail step.
	ErrStepFailed = errors.New("step failed")
	// ErrUnknownMatcher is returned for a check naming an unsupported matcher.
	ErrUnknownMatcher = errors.New("unknown matcher")
	// ErrBadOperand is returned when a check operand has the wrong type for its matcher.
	ErrBadOperand = errors.New("bad operand")
)

// location identifies a test or hook inside a plan file.
type location struct {
	file  m.Path
	suite string
	name  string
}

func newLocation(file m.Path, suitePath, name string) location {
	return location{file: file, suite: suitePath, name: name}
}

func (l location) step(i int) string {
	return fmt.Sprintf("%s: %s > %s (step %d)", l.file, l.suite, l.name, i+1)
}

func runSteps(ctx context.Context, where location, steps []m.Step) error {
	for i, step := range steps {
		if err := runStep(ctx, where, i, step); err != nil {
			return annotate(err, where.step(i))
		}
	}

	return nil
}

func runStep(ctx context.Context, where location, i int, step m.Step) error {
	switch {
	case step.Expect != nil:
		return Evaluate(*step.Expect)
	case step.Sleep > 0:
		return sleep(ctx, step.Sleep)
	case step.Fail != "":
		return fmt.Errorf("%w: %s", ErrStepFailed, step.Fail)
	case step.Log != "":
		slog.Info(step.Log, "suite", where.suite, "test", where.name, "step", i+1, "file", where.file)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// annotate records where a failing step lives. Assertion failures carry it
// as their origin, anything else is wrapped.
func annotate(err error, where string) error {
	var failure *expect.Failure
	if errors.As(err, &failure) {
		failure.Origin = where

		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%s: %w", where, err)
}

// Evaluate runs the matcher named by check against its literal operands.
func Evaluate(check m.Check) error {
	a := expect.That(check.Actual)
	if check.Not {
		a = a.Not()
	}

	switch check.Matcher {
	case "toBe":
		return a.ToBe(check.Expected)
	case "toEqual":
		return a.ToEqual(check.Expected)
	case "toStrictEqual":
		return a.ToStrictEqual(check.Expected)
	case "toBeTruthy":
		return a.ToBeTruthy()
	case "toBeFalsy":
		return a.ToBeFalsy()
	case "toBeNull":
		return a.ToBeNull()
	case "toBeUndefined":
		return a.ToBeUndefined()
	case "toBeDefined":
		return a.ToBeDefined()
	case "toBeGreaterThan":
		return a.ToBeGreaterThan(check.Expected)
	case "toBeGreaterThanOrEqual":
		return a.ToBeGreaterThanOrEqual(check.Expected)
	case "toBeLessThan":
		return a.ToBeLessThan(check.Expected)
	case "toBeLessThanOrEqual":
		return a.ToBeLessThanOrEqual(check.Expected)
	case "toContain":
		return a.ToContain(check.Expected)
	case "toContainEqual":
		return a.ToContainEqual(check.Expected)
	case "toHaveLength":
		n, ok := check.Expected.(int)
		if !ok {
			return fmt.Errorf("%w: toHaveLength expects an integer, got %T", ErrBadOperand, check.Expected)
		}

		return a.ToHaveLength(n)
	case "toHaveProperty":
		if check.Expected == nil {
			return a.ToHaveProperty(check.Property)
		}

		return a.ToHaveProperty(check.Property, check.Expected)
	case "toMatch":
		if check.Pattern == "" {
			return a.ToMatch(check.Expected)
		}

		re, err := regexp.Compile(check.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBadOperand, err)
		}

		return a.ToMatch(re)
	case "toBeCloseTo":
		return closeTo(a, check)
	}

	return fmt.Errorf("%w: %q", ErrUnknownMatcher, check.Matcher)
}

func closeTo(a *expect.Assertion, check m.Check) error {
	var expected float64

	switch v := check.Expected.(type) {
	case int:
		expected = float64(v)
	case float64:
		expected = v
	default:
		return fmt.Errorf("%w: toBeCloseTo expects a number, got %T", ErrBadOperand, check.Expected)
	}

	if check.Precision != nil {
		return a.ToBeCloseTo(expected, *check.Precision)
	}

	return a.ToBeCloseTo(expected)
}
