package suite

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoSuite is wrapped by the StructuralError returned when a test or hook is
// registered while no suite body is executing.
var ErrNoSuite = errors.New("registration must occur inside a suite")

// FailureKind classifies why a test or hook did not succeed.
type FailureKind string

// Available FailureKind values.
const (
	KindAssertion FailureKind = "assertion"
	KindTimeout   FailureKind = "timeout"
	KindHook      FailureKind = "hook"
	KindPanic     FailureKind = "panic"
	KindError     FailureKind = "error"
)

// StructuralError reports misuse of the registration API.
type StructuralError struct {
	Op   string
	Name string
	Err  error
}

func (e *StructuralError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// TimeoutError is recorded for a test whose body did not settle before its deadline.
type TimeoutError struct {
	Test    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("test %q timed out after %s", e.Test, e.Timeout)
}

// HookError wraps a failure raised inside a lifecycle hook.
type HookError struct {
	Kind  HookKind
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook #%d: %v", e.Kind, e.Index+1, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking hook or test body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so assertion
// failures raised with panic are still classified as assertions.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}
