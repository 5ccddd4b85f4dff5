package expect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct {
	X int
	Y int
}

type coord struct {
	X int
	Y int
}

type node struct {
	Value int
	Next  *node
}

func TestSame(t *testing.T) {
	shared := []int{1, 2}
	m := map[string]int{"a": 1}
	negZero := math.Copysign(0, -1)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 4, 4, true},
		{"no coercion across types", 1, int64(1), false},
		{"NaN is NaN", math.NaN(), math.NaN(), true},
		{"positive and negative zero differ", 0.0, negZero, false},
		{"same slice", shared, shared, true},
		{"equal but distinct slices", []int{1, 2}, []int{1, 2}, false},
		{"same map", m, m, true},
		{"distinct maps", map[string]int{"a": 1}, map[string]int{"a": 1}, false},
		{"comparable structs", point{1, 2}, point{1, 2}, true},
		{"both nil", nil, nil, true},
		{"nil against typed nil", nil, (*int)(nil), false},
		{"strings", "go", "go", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Same(tt.a, tt.b))
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"key order ignored", map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}, true},
		{"missing key", map[string]int{"a": 1}, map[string]int{"a": 1, "b": 2}, false},
		{"different constructors same shape", point{1, 2}, coord{1, 2}, true},
		{"struct against string-keyed map", point{1, 2}, map[string]any{"X": 1, "Y": 2}, true},
		{"sequences", []int{1, 2, 3}, []int{1, 2, 3}, true},
		{"sequence length", []int{1, 2}, []int{1, 2, 3}, false},
		{"sequence order", []int{1, 2}, []int{2, 1}, false},
		{"sequence against mapping", []int{1}, map[string]int{"0": 1}, false},
		{"array against slice", [2]int{1, 2}, []int{1, 2}, true},
		{"numbers across kinds", 1, 1.0, true},
		{"negative int against uint", -1, uint(math.MaxUint), false},
		{"nested", map[string]any{"a": []any{1, "x"}}, map[string]any{"a": []any{1, "x"}}, true},
		{"nested mismatch", map[string]any{"a": []any{1, "x"}}, map[string]any{"a": []any{1, "y"}}, false},
		{"pointers compare targets", &point{1, 2}, &point{1, 2}, true},
		{"nil and typed nil", nil, (*int)(nil), true},
		{"nil and value", nil, 0, false},
		{"nil slice is empty", []int(nil), []int{}, true},
		{"string against number", "1", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestStrictEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same type and structure", point{1, 2}, point{1, 2}, true},
		{"different constructors", point{1, 2}, coord{1, 2}, false},
		{"struct against map", point{1, 2}, map[string]any{"X": 1, "Y": 2}, false},
		{"array against slice", [2]int{1, 2}, []int{1, 2}, false},
		{"numeric kinds differ", 1, 1.0, false},
		{"nested types differ", []any{int32(1)}, []any{int64(1)}, false},
		{"key order ignored", map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}, true},
		{"nil and typed nil", nil, (*int)(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StrictEqual(tt.a, tt.b))
		})
	}
}

func TestEqual_Cycles(t *testing.T) {
	a := &node{Value: 1}
	a.Next = a

	b := &node{Value: 1}
	b.Next = b

	assert.True(t, Equal(a, b))
	assert.True(t, StrictEqual(a, b))

	c := &node{Value: 2}
	c.Next = c

	assert.False(t, Equal(a, c))

	loopA := []any{1}
	loopA = append(loopA, nil)
	loopA[1] = loopA

	loopB := []any{1}
	loopB = append(loopB, nil)
	loopB[1] = loopB

	assert.True(t, Equal(loopA, loopB))
}
