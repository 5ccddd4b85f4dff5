package expect

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ToBe checks identity, see Same.
func (a *Assertion) ToBe(expected any) error {
	return a.checkDiff("toBe", Same(a.actual, expected), "to be", expected)
}

// ToEqual checks deep structural equality, see Equal.
func (a *Assertion) ToEqual(expected any) error {
	return a.checkDiff("toEqual", Equal(a.actual, expected), "to equal", expected)
}

// ToStrictEqual checks deep equality with identical types, see StrictEqual.
func (a *Assertion) ToStrictEqual(expected any) error {
	return a.checkDiff("toStrictEqual", StrictEqual(a.actual, expected), "to strictly equal", expected)
}

// ToBeTruthy passes for values that are not falsy. Falsy values are nil,
// false, numeric zero, NaN, the empty string and nil references.
func (a *Assertion) ToBeTruthy() error {
	return a.check("toBeTruthy", truthy(a.actual), "to be truthy", nil, false)
}

// ToBeFalsy is the complement of ToBeTruthy.
func (a *Assertion) ToBeFalsy() error {
	return a.check("toBeFalsy", !truthy(a.actual), "to be falsy", nil, false)
}

// ToBeNull passes for untyped nil and for nil pointers, maps, slices,
// funcs, channels and interfaces.
func (a *Assertion) ToBeNull() error {
	return a.check("toBeNull", isNil(a.actual), "to be nil", nil, false)
}

// ToBeUndefined passes only for the untyped nil interface.
func (a *Assertion) ToBeUndefined() error {
	return a.check("toBeUndefined", a.actual == nil, "to be undefined", nil, false)
}

// ToBeDefined is the complement of ToBeUndefined.
func (a *Assertion) ToBeDefined() error {
	return a.check("toBeDefined", a.actual != nil, "to be defined", nil, false)
}

// ToBeGreaterThan compares numbers, strings or times.
func (a *Assertion) ToBeGreaterThan(expected any) error {
	return a.compare("toBeGreaterThan", "to be greater than", expected, func(c int) bool { return c > 0 })
}

// ToBeGreaterThanOrEqual compares numbers, strings or times.
func (a *Assertion) ToBeGreaterThanOrEqual(expected any) error {
	return a.compare("toBeGreaterThanOrEqual", "to be greater than or equal to", expected, func(c int) bool { return c >= 0 })
}

// ToBeLessThan compares numbers, strings or times.
func (a *Assertion) ToBeLessThan(expected any) error {
	return a.compare("toBeLessThan", "to be less than", expected, func(c int) bool { return c < 0 })
}

// ToBeLessThanOrEqual compares numbers, strings or times.
func (a *Assertion) ToBeLessThanOrEqual(expected any) error {
	return a.compare("toBeLessThanOrEqual", "to be less than or equal to", expected, func(c int) bool { return c <= 0 })
}

func (a *Assertion) compare(matcher, verb string, expected any, accept func(int) bool) error {
	c, ordered, err := order(a.actual, expected)
	if err != nil {
		return a.misuse(matcher, "%v", err)
	}

	return a.check(matcher, ordered && accept(c), verb, expected, true)
}

// ToContain checks substring containment for strings, identity membership
// for slices and arrays, and key membership for maps.
func (a *Assertion) ToContain(item any) error {
	found, err := contains(a.actual, item, sameValue)
	if err != nil {
		return a.misuse("toContain", "%v", err)
	}

	return a.check("toContain", found, "to contain", item, true)
}

// ToContainEqual checks membership by deep equality.
func (a *Assertion) ToContainEqual(item any) error {
	found, err := contains(a.actual, item, func(x, y reflect.Value) bool {
		return newComparer(false).equal(x, y)
	})
	if err != nil {
		return a.misuse("toContainEqual", "%v", err)
	}

	return a.check("toContainEqual", found, "to contain an element equal to", item, true)
}

// ToHaveLength checks len for slices, arrays, maps and channels, and the
// number of runes for strings.
func (a *Assertion) ToHaveLength(n int) error {
	v := unwrap(reflect.ValueOf(a.actual))
	if !v.IsValid() {
		return a.misuse("toHaveLength", "received nil")
	}

	var length int

	switch v.Kind() {
	case reflect.String:
		length = utf8.RuneCountInString(v.String())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		length = v.Len()
	default:
		return a.misuse("toHaveLength", "%s has no length", v.Type())
	}

	return a.check("toHaveLength", length == n, "to have length", n, true)
}

// ToHaveProperty checks that the dotted path resolves through struct
// fields, string-keyed map entries or sequence indexes. When a value is
// given, the property must also deep-equal it.
func (a *Assertion) ToHaveProperty(path string, value ...any) error {
	if path == "" {
		return a.misuse("toHaveProperty", "empty property path")
	}

	prop, found := property(reflect.ValueOf(a.actual), path)

	if len(value) == 0 {
		return a.check("toHaveProperty", found, "to have property", path, true)
	}

	passed := found && newComparer(false).equal(prop, reflect.ValueOf(value[0]))

	return a.check("toHaveProperty", passed, "to have property "+strconv.Quote(path)+" equal to", value[0], true)
}

// ToMatch tests a string or byte slice against a *regexp.Regexp, or checks
// containment when pattern is a plain string.
func (a *Assertion) ToMatch(pattern any) error {
	var s string

	switch v := a.actual.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return a.misuse("toMatch", "received %T, want string", a.actual)
	}

	switch p := pattern.(type) {
	case *regexp.Regexp:
		return a.check("toMatch", p.MatchString(s), "to match", p.String(), true)
	case string:
		return a.check("toMatch", strings.Contains(s, p), "to match", p, true)
	}

	return a.misuse("toMatch", "pattern %T, want string or *regexp.Regexp", pattern)
}

// ToThrow calls the wrapped func(), func() error or func() any and passes
// when it panics or returns a non-nil error. An optional string must be
// contained in the message, a *regexp.Regexp must match it and an error
// must be found with errors.Is.
func (a *Assertion) ToThrow(expected ...any) error {
	fn := reflect.ValueOf(a.actual)
	if fn.Kind() != reflect.Func || fn.Type().NumIn() != 0 {
		return a.misuse("toThrow", "received %T, want a func with no arguments", a.actual)
	}

	if fn.IsNil() {
		return a.misuse("toThrow", "received a nil %T", a.actual)
	}

	thrown := call(fn)

	return a.matchThrown("toThrow", thrown, expected)
}

// ToThrowAsync is ToThrow for callables that must be awaited: a
// func(context.Context) error, a func() error run asynchronously or a
// <-chan error. Waiting stops when ctx is done.
func (a *Assertion) ToThrowAsync(ctx context.Context, expected ...any) error {
	done := make(chan any, 1)

	switch fn := a.actual.(type) {
	case func(context.Context) error:
		go func() { done <- call(reflect.ValueOf(func() error { return fn(ctx) })) }()
	case func() error:
		go func() { done <- call(reflect.ValueOf(fn)) }()
	case <-chan error:
		go func() {
			if err, ok := <-fn; ok && err != nil {
				done <- err
				return
			}

			done <- nil
		}()
	default:
		return a.misuse("toThrowAsync", "received %T, want func(context.Context) error, func() error or <-chan error", a.actual)
	}

	select {
	case thrown := <-done:
		return a.matchThrown("toThrowAsync", thrown, expected)
	case <-ctx.Done():
		return fmt.Errorf("toThrowAsync: %w", ctx.Err())
	}
}

func (a *Assertion) matchThrown(matcher string, thrown any, expected []any) error {
	if len(expected) == 0 {
		return a.check(matcher, thrown != nil, "to throw", nil, false)
	}

	message := thrownMessage(thrown)

	switch e := expected[0].(type) {
	case string:
		return a.check(matcher, thrown != nil && strings.Contains(message, e), "to throw", e, true)
	case *regexp.Regexp:
		return a.check(matcher, thrown != nil && e.MatchString(message), "to throw matching", e.String(), true)
	case error:
		err, isErr := thrown.(error)
		passed := thrown != nil && ((isErr && errors.Is(err, e)) || message == e.Error())

		return a.check(matcher, passed, "to throw", e, true)
	}

	return a.misuse(matcher, "expected %T, want string, *regexp.Regexp or error", expected[0])
}

// ToBeInstanceOf checks the dynamic type of the value. An interface type
// matches any value implementing it.
func (a *Assertion) ToBeInstanceOf(t reflect.Type) error {
	if t == nil {
		return a.misuse("toBeInstanceOf", "nil type")
	}

	actual := reflect.TypeOf(a.actual)

	passed := actual != nil && (actual == t || (t.Kind() == reflect.Interface && actual.Implements(t)))

	return a.check("toBeInstanceOf", passed, "to be an instance of", t.String(), true)
}

// ToBeCloseTo checks |actual-expected| < 0.5*10^-precision, precision
// defaulting to 2. Equal infinities are close.
func (a *Assertion) ToBeCloseTo(expected float64, precision ...int) error {
	digits := 2
	if len(precision) > 0 {
		digits = precision[0]
	}

	v := unwrap(reflect.ValueOf(a.actual))
	if !v.IsValid() || !isNumber(v) {
		return a.misuse("toBeCloseTo", "received %T, want a number", a.actual)
	}

	actual := toFloat(v)

	var passed bool
	if math.IsInf(actual, 0) || math.IsInf(expected, 0) {
		passed = actual == expected
	} else {
		passed = math.Abs(actual-expected) < 0.5*math.Pow10(-digits)
	}

	return a.check("toBeCloseTo", passed, fmt.Sprintf("to be close to (precision %d)", digits), expected, true)
}

func truthy(x any) bool {
	v := reflect.ValueOf(x)
	if !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.Len() > 0
	case reflect.Complex64, reflect.Complex128:
		return v.Complex() != 0
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return !v.IsNil()
	}

	if isNumber(v) {
		f := toFloat(v)
		return f != 0 && !math.IsNaN(f)
	}

	return true
}

func isNil(x any) bool {
	v := reflect.ValueOf(x)
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}

	return false
}

var timeType = reflect.TypeOf(time.Time{})

// order compares a with b. ordered is false when either side is NaN.
func order(a, b any) (c int, ordered bool, err error) {
	va, vb := unwrap(reflect.ValueOf(a)), unwrap(reflect.ValueOf(b))
	if !va.IsValid() || !vb.IsValid() {
		return 0, false, errors.New("cannot order nil")
	}

	switch {
	case isNumber(va) && isNumber(vb):
		switch {
		case isInt(va) && isInt(vb):
			return cmp.Compare(va.Int(), vb.Int()), true, nil
		case isUint(va) && isUint(vb):
			return cmp.Compare(va.Uint(), vb.Uint()), true, nil
		case isInt(va) && isUint(vb):
			return compareSigned(va.Int(), vb.Uint()), true, nil
		case isUint(va) && isInt(vb):
			return -compareSigned(vb.Int(), va.Uint()), true, nil
		}

		x, y := toFloat(va), toFloat(vb)
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false, nil
		}

		return cmp.Compare(x, y), true, nil
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String()), true, nil
	case va.Type() == timeType && vb.Type() == timeType:
		ta, _ := va.Interface().(time.Time)
		tb, _ := vb.Interface().(time.Time)

		return ta.Compare(tb), true, nil
	}

	return 0, false, fmt.Errorf("cannot order %s against %s", va.Type(), vb.Type())
}

// compareSigned orders a signed against an unsigned integer without a
// lossy float conversion.
func compareSigned(i int64, u uint64) int {
	if i < 0 {
		return -1
	}

	return cmp.Compare(uint64(i), u)
}

func contains(container, item any, match func(x, y reflect.Value) bool) (bool, error) {
	c := unwrap(reflect.ValueOf(container))
	if !c.IsValid() {
		return false, errors.New("received nil")
	}

	switch c.Kind() {
	case reflect.String:
		switch s := item.(type) {
		case string:
			return strings.Contains(c.String(), s), nil
		case rune:
			return strings.ContainsRune(c.String(), s), nil
		}

		return false, fmt.Errorf("cannot look for %T in a string", item)
	case reflect.Slice, reflect.Array:
		needle := reflect.ValueOf(item)
		for i := 0; i < c.Len(); i++ {
			if match(c.Index(i), needle) {
				return true, nil
			}
		}

		return false, nil
	case reflect.Map:
		key := reflect.ValueOf(item)
		if !key.IsValid() {
			return false, nil
		}

		keyType := c.Type().Key()

		switch {
		case key.Type().AssignableTo(keyType):
		case key.Type().ConvertibleTo(keyType) && key.Kind() == keyType.Kind():
			key = key.Convert(keyType)
		default:
			return false, nil
		}

		return c.MapIndex(key).IsValid(), nil
	}

	return false, fmt.Errorf("%s is not a container", c.Type())
}

func property(v reflect.Value, path string) (reflect.Value, bool) {
	for _, segment := range strings.Split(path, ".") {
		v = unwrap(v)
		for v.IsValid() && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}

			v = unwrap(v.Elem())
		}

		if !v.IsValid() {
			return reflect.Value{}, false
		}

		switch v.Kind() {
		case reflect.Struct:
			field, ok := v.Type().FieldByName(segment)
			if !ok {
				return reflect.Value{}, false
			}

			// Promoted through a nil embedded pointer: not there.
			fv, err := v.FieldByIndexErr(field.Index)
			if err != nil {
				return reflect.Value{}, false
			}

			v = fv
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, false
			}

			v = v.MapIndex(reflect.ValueOf(segment).Convert(v.Type().Key()))
			if !v.IsValid() {
				return reflect.Value{}, false
			}
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= v.Len() {
				return reflect.Value{}, false
			}

			v = v.Index(i)
		default:
			return reflect.Value{}, false
		}
	}

	return v, true
}

// call invokes a func with no arguments and returns what it threw: the
// recovered panic value, or its last result when that is a non-nil error.
func call(fn reflect.Value) (thrown any) {
	defer func() {
		if r := recover(); r != nil {
			thrown = r
		}
	}()

	out := fn.Call(nil)
	if len(out) == 0 {
		return nil
	}

	last := out[len(out)-1]
	if last.Kind() == reflect.Interface && last.IsNil() {
		return nil
	}

	if err, ok := last.Interface().(error); ok {
		return err
	}

	return nil
}

func thrownMessage(thrown any) string {
	switch t := thrown.(type) {
	case nil:
		return ""
	case error:
		return t.Error()
	case string:
		return t
	}

	return fmt.Sprint(thrown)
}
