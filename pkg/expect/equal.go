package expect

import (
	"math"
	"reflect"
)

// Same reports identity: both untyped nil, or the same dynamic type and an
// identical value. NaN is the same as NaN and +0 is not the same as -0.
// Slices, maps, funcs, channels and pointers are the same only when they
// refer to the same underlying object.
func Same(a, b any) bool {
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

// Equal reports deep structural equality. Numbers compare by value across
// numeric types, mappings (maps and structs) compare by key set and values
// regardless of key order, and sequences compare element-wise.
func Equal(a, b any) bool {
	c := newComparer(false)
	return c.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

// StrictEqual is Equal that also requires identical types at every level.
func StrictEqual(a, b any) bool {
	c := newComparer(true)
	return c.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(a, b reflect.Value) bool {
	a, b = unwrap(a), unwrap(b)

	if !a.IsValid() || !b.IsValid() {
		return !a.IsValid() && !b.IsValid()
	}

	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return sameFloat(real(x), real(y)) && sameFloat(imag(x), imag(y))
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.IsNil() == b.IsNil()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	}

	if a.Comparable() && b.Comparable() {
		return a.Equal(b)
	}

	return false
}

func sameFloat(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}

	return x == y && math.Signbit(x) == math.Signbit(y)
}

// unwrap strips interface layers; a nil interface becomes the zero Value.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

type valueClass int

const (
	classScalar valueClass = iota
	classSequence
	classMapping
	classPointer
)

func classify(v reflect.Value) valueClass {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return classSequence
	case reflect.Map, reflect.Struct:
		return classMapping
	case reflect.Pointer:
		return classPointer
	}

	return classScalar
}

// absent reports whether v is untyped nil or a nil reference that has no
// container semantics. Nil slices and maps count as empty containers.
func absent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return v.IsNil()
	}

	return false
}

type visit struct {
	a, b   uintptr
	ta, tb reflect.Type
}

// comparer walks two values in step. Pairs of references already on the
// walk are treated as equal, so cyclic values terminate.
type comparer struct {
	strict  bool
	visited map[visit]bool
}

func newComparer(strict bool) *comparer {
	return &comparer{strict: strict, visited: map[visit]bool{}}
}

func (c *comparer) equal(a, b reflect.Value) bool {
	a, b = unwrap(a), unwrap(b)

	if absent(a) || absent(b) {
		if !absent(a) || !absent(b) {
			return false
		}

		if c.strict && a.IsValid() != b.IsValid() {
			return false
		}

		return !c.strict || !a.IsValid() || a.Type() == b.Type()
	}

	if c.strict && a.Type() != b.Type() {
		return false
	}

	if classify(a) != classify(b) {
		return false
	}

	switch classify(a) {
	case classPointer:
		if a.Pointer() == b.Pointer() {
			return true
		}

		if c.seen(a, b) {
			return true
		}

		return c.equal(a.Elem(), b.Elem())
	case classSequence:
		return c.sequenceEqual(a, b)
	case classMapping:
		return c.mappingEqual(a, b)
	}

	return c.scalarEqual(a, b)
}

func (c *comparer) seen(a, b reflect.Value) bool {
	key := visit{a: a.Pointer(), b: b.Pointer(), ta: a.Type(), tb: b.Type()}
	if c.visited[key] {
		return true
	}

	c.visited[key] = true

	return false
}

func (c *comparer) sequenceEqual(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}

	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice && a.Len() > 0 {
		if a.Pointer() == b.Pointer() && a.Type() == b.Type() {
			return true
		}

		if c.seen(a, b) {
			return true
		}
	}

	for i := 0; i < a.Len(); i++ {
		if !c.equal(a.Index(i), b.Index(i)) {
			return false
		}
	}

	return true
}

func (c *comparer) mappingEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Map && b.Kind() == reflect.Map {
		if a.Pointer() == b.Pointer() && a.Type() == b.Type() {
			return true
		}

		if !a.IsNil() && !b.IsNil() && c.seen(a, b) {
			return true
		}

		if a.Type().Key() == b.Type().Key() {
			return c.mapEqual(a, b)
		}
	}

	ea, ok := entries(a)
	if !ok {
		return false
	}

	eb, ok := entries(b)
	if !ok {
		return false
	}

	if len(ea) != len(eb) {
		return false
	}

	for key, va := range ea {
		vb, found := eb[key]
		if !found || !c.equal(va, vb) {
			return false
		}
	}

	return true
}

func (c *comparer) mapEqual(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}

	iter := a.MapRange()
	for iter.Next() {
		vb := b.MapIndex(iter.Key())
		if !vb.IsValid() || !c.equal(iter.Value(), vb) {
			return false
		}
	}

	return true
}

// entries exposes structs and string-keyed maps as name/value sets.
func entries(v reflect.Value) (map[string]reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]reflect.Value, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			out[v.Type().Field(i).Name] = v.Field(i)
		}

		return out, true
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		out := make(map[string]reflect.Value, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value()
		}

		return out, true
	}

	return nil, false
}

func (c *comparer) scalarEqual(a, b reflect.Value) bool {
	if isNumber(a) && isNumber(b) {
		return numberEqual(a, b)
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case reflect.String:
		return a.String() == b.String()
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return sameFloat(real(x), real(y)) && sameFloat(imag(x), imag(y))
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	}

	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || isFloat(v)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}

	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}

	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func numberEqual(a, b reflect.Value) bool {
	switch {
	case isInt(a) && isInt(b):
		return a.Int() == b.Int()
	case isUint(a) && isUint(b):
		return a.Uint() == b.Uint()
	case isInt(a) && isUint(b):
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case isUint(a) && isInt(b):
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint()
	}

	return sameFloat(toFloat(a), toFloat(b))
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	case isFloat(v):
		return v.Float()
	}

	return math.NaN()
}
