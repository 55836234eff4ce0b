package dolt

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// scanRows materializes a result set. Queries without arguments use the
// text protocol, where every value arrives as []byte; column types turn
// numerics back into int64/float64 so that keys read here compare equal to
// generated ones.
func scanRows(rows *sql.Rows) ([][]any, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	result := [][]any{}
	for rows.Next() {
		raw := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]any, len(raw))
		for i, v := range raw {
			row[i] = convert(colTypes[i].DatabaseTypeName(), v)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func convert(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)

	switch t := strings.TrimPrefix(dbType, "UNSIGNED "); t {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
	case "DECIMAL", "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func firstColumn(rows [][]any) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = asString(r[0])
	}
	return out
}
