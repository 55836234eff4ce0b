package sqlutil

import (
	"fmt"
	"strings"
)

// BuildInsert returns a single-row INSERT for the given columns.
func BuildInsert(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
	)
}

// BuildPointSelect returns a SELECT * matching every primary-key column.
func BuildPointSelect(d Dialect, table string, pkColumns []string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s",
		d.Quote(table),
		predicate(d, pkColumns, 1),
	)
}

// BuildUpdate returns an UPDATE that sets setColumns on the row matching the
// primary key. Bind order is setColumns followed by pkColumns.
func BuildUpdate(d Dialect, table string, setColumns, pkColumns []string) string {
	sets := make([]string, len(setColumns))
	for i, c := range setColumns {
		sets[i] = fmt.Sprintf("%s = %s", d.Quote(c), d.Placeholder(i+1))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.Quote(table),
		strings.Join(sets, ", "),
		predicate(d, pkColumns, len(setColumns)+1),
	)
}

// BuildKeyScan returns a SELECT of the primary-key columns over the whole table.
func BuildKeyScan(d Dialect, table string, pkColumns []string) string {
	quoted := make([]string, len(pkColumns))
	for i, c := range pkColumns {
		quoted[i] = d.Quote(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), d.Quote(table))
}

// BuildCount returns a SELECT COUNT(*) over the whole table.
func BuildCount(d Dialect, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.Quote(table))
}

func predicate(d Dialect, columns []string, firstPosition int) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s = %s", d.Quote(c), d.Placeholder(firstPosition+i))
	}
	return strings.Join(parts, " AND ")
}
