package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_StringIdentity(t *testing.T) {
	t.Run("driver and generator values collide", func(t *testing.T) {
		fromDriver := NewKey([]byte("w1"), int64(3))
		fromGenerator := NewKey("w1", 3)
		assert.Equal(t, fromDriver.String(), fromGenerator.String())
	})

	t.Run("types stay distinct", func(t *testing.T) {
		assert.NotEqual(t, NewKey(1).String(), NewKey("1").String())
	})

	t.Run("arity matters", func(t *testing.T) {
		assert.NotEqual(t, NewKey(1, 2).String(), NewKey(1).String())
	})

	t.Run("separator inside text", func(t *testing.T) {
		a := NewKey("a\x1fs:b", "c")
		b := NewKey("a", "b\x1fs:c")
		assert.NotEqual(t, a.String(), b.String())
		assert.NotEqual(t, NewKey("x\x1fi:1").String(), NewKey("x", 1).String())
	})
}

func TestKey_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{name: "equal", a: NewKey(1, "a"), b: NewKey(1, "a"), want: 0},
		{name: "first column decides", a: NewKey(1, "z"), b: NewKey(2, "a"), want: -1},
		{name: "tie broken by second column", a: NewKey(1, "b"), b: NewKey(1, "a"), want: 1},
		{name: "shorter prefix first", a: NewKey(1), b: NewKey(1, 0), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, CompareValues(int64(1), 2.5))
	assert.Equal(t, 1, CompareValues(3.0, int64(2)))
	assert.Equal(t, 0, CompareValues(int32(4), int64(4)))
	assert.Equal(t, -1, CompareValues(nil, 0))
	assert.Equal(t, 1, CompareValues("b", "a"))
	assert.Equal(t, -1, CompareValues(false, true))
}
