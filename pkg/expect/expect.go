// Package expect wraps a value and checks it against matchers.
//
// Every matcher returns nil when its condition holds and a *Failure
// otherwise. Not inverts the condition of every matcher that follows it on
// the same wrapper:
//
//	if err := expect.That(got).Not().ToBe(want); err != nil {
//		return err
//	}
//
// Operands a matcher cannot handle yield a *MatcherError regardless of
// negation.
package expect

import (
	"fmt"
	"strings"
)

// Assertion wraps an actual value together with a negation flag.
type Assertion struct {
	actual  any
	negated bool
}

// That wraps actual for checking.
func That(actual any) *Assertion {
	return &Assertion{actual: actual}
}

// Not toggles negation and returns the same wrapper.
func (a *Assertion) Not() *Assertion {
	a.negated = !a.negated
	return a
}

// Negated reports whether the wrapper currently inverts its matchers.
func (a *Assertion) Negated() bool {
	return a.negated
}

// check implements the single pass rule shared by all matchers: the
// assertion fails exactly when passed equals the negation flag.
func (a *Assertion) check(matcher string, passed bool, verb string, expected any, hasExpected bool) error {
	if passed != a.negated {
		return nil
	}

	return a.failure(matcher, verb, expected, hasExpected, "")
}

func (a *Assertion) checkDiff(matcher string, passed bool, verb string, expected any) error {
	if passed != a.negated {
		return nil
	}

	d := ""
	if !a.negated {
		d = diff(expected, a.actual)
	}

	return a.failure(matcher, verb, expected, true, d)
}

func (a *Assertion) failure(matcher, verb string, expected any, hasExpected bool, d string) *Failure {
	var b strings.Builder

	fmt.Fprintf(&b, "expected %s ", render(a.actual))

	if a.negated {
		b.WriteString("not ")
	}

	b.WriteString(verb)

	f := &Failure{
		Matcher: matcher,
		Negated: a.negated,
		Actual:  render(a.actual),
		Diff:    d,
		Origin:  origin(),
	}

	if hasExpected {
		f.Expected = render(expected)
		fmt.Fprintf(&b, " %s", f.Expected)
	}

	f.Message = b.String()

	return f
}

func (a *Assertion) misuse(matcher, format string, args ...any) error {
	return &MatcherError{
		Matcher: matcher,
		Reason:  fmt.Sprintf(format, args...),
		Origin:  origin(),
	}
}
