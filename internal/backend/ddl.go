package backend

import (
	"fmt"
	"strings"
)

// ColumnDef is one column as reported by information_schema.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// FormatDDL renders the simplified CREATE TABLE form returned by TableDDL.
func FormatDDL(table string, cols []ColumnDef) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", table)
	for _, c := range cols {
		fmt.Fprintf(&sb, "  %s %s", c.Name, c.Type)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		sb.WriteString(",\n")
	}
	sb.WriteString(");")
	return sb.String()
}
