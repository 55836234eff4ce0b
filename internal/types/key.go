// Package types contains value helpers shared by the population cache, the
// sampler and the backend adapters.
package types

import (
	"cmp"
	"fmt"
	"strings"
)

// Key is a primary-key tuple. Its arity equals the number of PK columns.
type Key []interface{}

// NewKey builds a Key from raw column values, normalizing each one.
func NewKey(values ...interface{}) Key {
	k := make(Key, len(values))
	for i, v := range values {
		k[i] = Normalize(v)
	}
	return k
}

// String returns the canonical encoding used for set membership.
// Values are type-tagged so that int64(1) and "1" stay distinct, and free-form
// text is length-prefixed so it cannot forge a column boundary.
func (k Key) String() string {
	var sb strings.Builder
	for i, v := range k {
		if i > 0 {
			sb.WriteByte('\x1f')
		}
		switch x := v.(type) {
		case nil:
			sb.WriteString("n:")
		case int64:
			fmt.Fprintf(&sb, "i:%d", x)
		case float64:
			fmt.Fprintf(&sb, "f:%v", x)
		case string:
			fmt.Fprintf(&sb, "s%d:%s", len(x), x)
		case bool:
			fmt.Fprintf(&sb, "b:%t", x)
		default:
			text := fmt.Sprint(x)
			fmt.Fprintf(&sb, "%T%d:%s", x, len(text), text)
		}
	}
	return sb.String()
}

// Compare orders two keys lexicographically, column by column.
func (k Key) Compare(other Key) int {
	n := min(len(k), len(other))
	for i := 0; i < n; i++ {
		if c := CompareValues(k[i], other[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(k), len(other))
}

// CompareValues orders two normalized column values. Nil sorts first, numbers
// compare numerically across int64/float64, strings lexically; mixed types
// fall back to comparing their formatted representation.
func CompareValues(a, b interface{}) int {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y)
		case float64:
			return cmp.Compare(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmp.Compare(x, y)
		case int64:
			return cmp.Compare(x, float64(y))
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
