package types

import (
	"time"
)

// ToInt64 converts an interface{} to int64.
// Supports int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, and float64.
// String and []byte values holding a decimal integer are parsed as well, since
// information_schema columns come back as text from some drivers.
func ToInt64(v interface{}) int64 {
	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float64:
		return int64(i)
	case float32:
		return int64(i)
	case []byte:
		return parseDecimal(string(i))
	case string:
		return parseDecimal(i)
	default:
		return 0
	}
}

func parseDecimal(s string) int64 {
	if s == "" {
		return 0
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		return -n
	}
	return n
}

// Normalize maps a driver or generator value onto a canonical Go type so that
// equal column values compare equal regardless of where they came from.
//
//   - every signed/unsigned integer becomes int64
//   - float32 becomes float64
//   - []byte becomes string
//   - time.Time becomes its UTC RFC3339Nano string
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ToInt64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
