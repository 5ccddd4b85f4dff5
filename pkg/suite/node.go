package suite

import (
	"context"
	"time"
)

// DefaultTimeout bounds a test body when neither the test nor the engine sets one.
const DefaultTimeout = 5 * time.Second

// Body is the callable run for a test case or a hook. Returning an error or
// panicking both count as a failure.
type Body func(ctx context.Context) error

// HookKind names one of the four lifecycle hook lists of a suite.
type HookKind int

// Available HookKind values.
const (
	BeforeAll HookKind = iota
	AfterAll
	BeforeEach
	AfterEach
)

func (k HookKind) String() string {
	switch k {
	case BeforeAll:
		return "beforeAll"
	case AfterAll:
		return "afterAll"
	case BeforeEach:
		return "beforeEach"
	case AfterEach:
		return "afterEach"
	}

	return "unknown"
}

func (k HookKind) valid() bool {
	return k >= BeforeAll && k <= AfterEach
}

// TestCase is a single registered test.
type TestCase struct {
	Name    string
	Body    Body
	Skip    bool
	Only    bool
	Timeout time.Duration
}

// SuiteNode is a named group of tests, hooks and nested suites. A node is
// fully populated once the body that declared it returns and is only read
// from then on.
type SuiteNode struct {
	Name     string
	Tests    []*TestCase
	Children []*SuiteNode

	hooks [4][]Body
}

// Hooks returns the hooks of the given kind in declaration order.
func (n *SuiteNode) Hooks(kind HookKind) []Body {
	if !kind.valid() {
		return nil
	}

	return n.hooks[kind]
}

func (n *SuiteNode) addHook(kind HookKind, fn Body) {
	n.hooks[kind] = append(n.hooks[kind], fn)
}

// focused reports whether any direct test of the node is marked only.
func (n *SuiteNode) focused() bool {
	for _, tc := range n.Tests {
		if tc.Only {
			return true
		}
	}

	return false
}

// TestOption customises a test at registration time.
type TestOption func(*TestCase)

// WithSkip marks the test as skipped.
func WithSkip() TestOption {
	return func(tc *TestCase) {
		tc.Skip = true
	}
}

// WithOnly marks the test for focus mode.
func WithOnly() TestOption {
	return func(tc *TestCase) {
		tc.Only = true
	}
}

// WithTimeout overrides the timeout of the test body.
func WithTimeout(d time.Duration) TestOption {
	return func(tc *TestCase) {
		tc.Timeout = d
	}
}
