package expect

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

// Failure is returned by a matcher whose pass condition is not met.
type Failure struct {
	Matcher  string
	Negated  bool
	Message  string
	Actual   string
	Expected string
	Diff     string
	// Origin is the file:line of the assertion call.
	Origin string
}

func (f *Failure) Error() string {
	if f.Diff == "" {
		return f.Message
	}

	return f.Message + "\n\nDiff:\n" + f.Diff
}

// MatcherError reports a matcher used with operands it cannot handle. It is
// returned whether or not the assertion is negated.
type MatcherError struct {
	Matcher string
	Reason  string
	Origin  string
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("%s: %s", e.Matcher, e.Reason)
}

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	DisableMethods:          true,
}

var packageDir string

func init() {
	if _, file, _, ok := runtime.Caller(0); ok {
		packageDir = filepath.Dir(file)
	}
}

// origin returns the location of the first caller outside this package.
func origin() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		inPackage := filepath.Dir(frame.File) == packageDir && !strings.HasSuffix(frame.File, "_test.go")

		if !inPackage && frame.File != "" {
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}

		if !more {
			return ""
		}
	}
}

func render(v any) string {
	if v == nil {
		return "nil"
	}

	return fmt.Sprintf("%#v", v)
}

// diff renders a unified diff of two values when both are containers of the
// same type; scalars are fully described by the failure message.
func diff(expected, actual any) string {
	if expected == nil || actual == nil {
		return ""
	}

	et, at := reflect.TypeOf(expected), reflect.TypeOf(actual)
	if et != at {
		return ""
	}

	switch indirectKind(et) {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
	default:
		return ""
	}

	e := spewConfig.Sdump(expected)
	a := spewConfig.Sdump(actual)

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e),
		B:        difflib.SplitLines(a),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return text
}

func indirectKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Kind()
}
