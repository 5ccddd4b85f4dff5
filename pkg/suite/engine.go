// Package suite builds trees of test suites and runs them sequentially,
// applying lifecycle hooks, focus and skip markers and per-test timeouts.
//
// An Engine owns one tree. Registration happens through Describe, which makes
// the new suite the current registration target while its body runs:
//
//	eng := suite.New()
//	_ = eng.Describe("Math", func() {
//		eng.Test("adds", func(context.Context) error {
//			return expect.That(2 + 2).ToBe(4)
//		})
//	})
//	report := eng.RunAll(ctx)
package suite

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

var (
	errEmptyName  = errors.New("name must not be empty")
	errNilBody    = errors.New("body must not be nil")
	errBadTimeout = errors.New("timeout must be positive")
	errHookKind   = errors.New("unknown hook kind")
)

// Engine holds a suite tree together with the settings used to run it.
// Engines are independent of each other; an Engine is not safe for
// concurrent registration.
type Engine struct {
	suites   []*SuiteNode
	current  *SuiteNode
	pending  []error
	logger   *slog.Logger
	timeout  time.Duration
	listener Listener
}

// Option is a functional option for New.
type Option func(*Engine)

// WithLogger sets the logger used to report hook failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDefaultTimeout sets the timeout applied to tests that do not set one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithListener registers a Listener notified while the tree runs.
func WithListener(listener Listener) Option {
	return func(e *Engine) {
		e.listener = listener
	}
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		listener: nopListener{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.listener == nil {
		e.listener = nopListener{}
	}

	return e
}

// Suites returns the top-level suites in declaration order.
func (e *Engine) Suites() []*SuiteNode {
	return e.suites
}

// Describe declares a suite. While body runs, tests, hooks and nested suites
// registered on e attach to the new suite. The previous registration target
// is restored on return, including when body panics; a panicking body
// discards the suite and is reported as a StructuralError.
//
// Registration errors raised inside body are joined into the returned error.
func (e *Engine) Describe(name string, body func()) error {
	if name == "" {
		return e.fail(&StructuralError{Op: "describe", Err: errEmptyName})
	}

	if body == nil {
		return e.fail(&StructuralError{Op: "describe", Name: name, Err: errNilBody})
	}

	node := &SuiteNode{Name: name}
	parent := e.current
	saved := e.pending
	e.pending = nil

	panicked := e.enter(node, parent, body)

	collected := e.pending
	e.pending = saved

	if panicked != nil {
		return e.fail(&StructuralError{Op: "describe", Name: name, Err: panicked})
	}

	if parent == nil {
		e.suites = append(e.suites, node)
	} else {
		parent.Children = append(parent.Children, node)
	}

	if len(collected) > 0 {
		return e.fail(fmt.Errorf("describe %q: %w", name, errors.Join(collected...)))
	}

	return nil
}

func (e *Engine) enter(node, parent *SuiteNode, body func()) (panicked *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			panicked = &PanicError{Value: r, Stack: debug.Stack()}
		}

		e.current = parent
	}()

	e.current = node
	body()

	return nil
}

// Test registers a test case in the current suite.
func (e *Engine) Test(name string, body Body, opts ...TestOption) error {
	if e.current == nil {
		return &StructuralError{Op: "test", Name: name, Err: ErrNoSuite}
	}

	tc := &TestCase{Name: name, Body: body, Timeout: e.timeout}
	for _, opt := range opts {
		opt(tc)
	}

	switch {
	case name == "":
		return e.fail(&StructuralError{Op: "test", Err: errEmptyName})
	case body == nil:
		return e.fail(&StructuralError{Op: "test", Name: name, Err: errNilBody})
	case tc.Timeout <= 0:
		return e.fail(&StructuralError{Op: "test", Name: name, Err: errBadTimeout})
	}

	e.current.Tests = append(e.current.Tests, tc)

	return nil
}

// Skip registers a test that is reported as skipped without running.
func (e *Engine) Skip(name string, body Body, opts ...TestOption) error {
	return e.Test(name, body, append(opts, WithSkip())...)
}

// Only registers a focused test.
func (e *Engine) Only(name string, body Body, opts ...TestOption) error {
	return e.Test(name, body, append(opts, WithOnly())...)
}

// Hook registers a lifecycle hook of the given kind in the current suite.
func (e *Engine) Hook(kind HookKind, fn Body) error {
	if e.current == nil {
		return &StructuralError{Op: kind.String(), Err: ErrNoSuite}
	}

	if !kind.valid() {
		return e.fail(&StructuralError{Op: "hook", Err: fmt.Errorf("%w: %d", errHookKind, int(kind))})
	}

	if fn == nil {
		return e.fail(&StructuralError{Op: kind.String(), Err: errNilBody})
	}

	e.current.addHook(kind, fn)

	return nil
}

// BeforeAll registers a hook run once before the tests of the current suite.
func (e *Engine) BeforeAll(fn Body) error {
	return e.Hook(BeforeAll, fn)
}

// AfterAll registers a hook run once after the current suite and its children.
func (e *Engine) AfterAll(fn Body) error {
	return e.Hook(AfterAll, fn)
}

// BeforeEach registers a hook run before every test of the current suite.
func (e *Engine) BeforeEach(fn Body) error {
	return e.Hook(BeforeEach, fn)
}

// AfterEach registers a hook run after every executed test of the current suite.
func (e *Engine) AfterEach(fn Body) error {
	return e.Hook(AfterEach, fn)
}

// fail remembers err for the enclosing Describe and returns it.
func (e *Engine) fail(err error) error {
	if e.current != nil {
		e.pending = append(e.pending, err)
	}

	return err
}
