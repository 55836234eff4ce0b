// Package datagen produces synthetic rows for a table from its column DDL.
package datagen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Family groups SQL column types by how values are generated for them.
type Family int

const (
	FamilyText Family = iota
	FamilyInteger
	FamilyDecimal
	FamilyFloat
	FamilyDate
	FamilyTimestamp
	FamilyBool
	FamilyUUID
	FamilyJSON
)

// Column is one parsed column definition.
type Column struct {
	Name      string
	Type      string // lower-cased base type, e.g. "varchar"
	Family    Family
	Length    int // char/varchar length, 0 when unbounded
	Precision int // decimal precision
	Scale     int // decimal scale
	Unsigned  bool
	NotNull   bool
}

// clauseKeywords start table-level clauses that are not column definitions.
// They only match as a whole first token, so index_id is still a column.
var clauseKeywords = map[string]bool{
	"primary":    true,
	"key":        true,
	"constraint": true,
	"unique":     true,
	"index":      true,
	"foreign":    true,
	"check":      true,
	"fulltext":   true,
	"spatial":    true,
}

// typeTerminators end the type part of a column definition.
var typeTerminators = []string{" not null", " null", " default ", " primary key", " auto_increment", " unique", " references ", " generated "}

var typeArgs = regexp.MustCompile(`^([0-9]+)\s*(?:,\s*([0-9]+))?$`)

// ParseDDL extracts the table name and columns from a CREATE TABLE statement
// with one column definition per line.
func ParseDDL(ddl string) (string, []Column, error) {
	lines := strings.Split(strings.TrimSpace(ddl), "\n")
	if len(lines) == 0 {
		return "", nil, fmt.Errorf("empty DDL")
	}

	header := strings.TrimSpace(lines[0])
	lowerHeader := strings.ToLower(header)
	if !strings.HasPrefix(lowerHeader, "create table") {
		return "", nil, fmt.Errorf("DDL does not start with CREATE TABLE: %q", header)
	}
	table := strings.TrimSpace(header[len("create table"):])
	table = strings.TrimSuffix(table, "(")
	table = unquote(strings.TrimSpace(table))
	if table == "" {
		return "", nil, fmt.Errorf("DDL has no table name")
	}

	var columns []Column
	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		line = strings.TrimSuffix(line, ",")
		if line == "" || line == ");" || line == ")" {
			continue
		}
		if isTableClause(line) {
			continue
		}

		col, err := parseColumn(line)
		if err != nil {
			return "", nil, fmt.Errorf("table %s: %w", table, err)
		}
		columns = append(columns, col)
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("table %s: no columns in DDL", table)
	}
	return table, columns, nil
}

func parseColumn(line string) (Column, error) {
	name, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Column{}, fmt.Errorf("column definition %q has no type", line)
	}
	col := Column{Name: unquote(name)}

	rest = strings.ToLower(strings.TrimSpace(rest))
	col.NotNull = strings.Contains(rest, "not null")

	typePart := " " + rest
	for _, term := range typeTerminators {
		if i := strings.Index(typePart, term); i >= 0 {
			typePart = typePart[:i]
		}
	}
	typePart = strings.TrimSpace(typePart)

	if base, ok := strings.CutSuffix(typePart, " unsigned"); ok {
		typePart, col.Unsigned = strings.TrimSpace(base), true
	}
	base, args, hasArgs := strings.Cut(typePart, "(")
	col.Type = strings.TrimSpace(base)
	if col.Type == "" {
		return Column{}, fmt.Errorf("column %s: cannot parse type %q", col.Name, typePart)
	}
	if hasArgs {
		args, _, _ = strings.Cut(args, ")")
		// Non-numeric arguments (enum members, set values) are ignored.
		if m := typeArgs.FindStringSubmatch(strings.TrimSpace(args)); m != nil {
			n, _ := strconv.Atoi(m[1])
			col.Length, col.Precision = n, n
			if m[2] != "" {
				col.Scale, _ = strconv.Atoi(m[2])
			}
		}
	}
	col.Family = familyOf(col.Type)
	if col.Family != FamilyText {
		col.Length = 0
	}
	if col.Family != FamilyDecimal {
		col.Precision, col.Scale = 0, 0
	}
	return col, nil
}

func familyOf(t string) Family {
	switch {
	case t == "bit" || strings.HasPrefix(t, "bool"):
		return FamilyBool
	case t != "point" && (strings.HasSuffix(t, "int") || strings.HasSuffix(t, "integer")) || strings.HasSuffix(t, "serial"):
		return FamilyInteger
	case t == "decimal" || t == "numeric" || t == "money":
		return FamilyDecimal
	case t == "float" || t == "double" || t == "real" || strings.HasPrefix(t, "double precision") || strings.HasPrefix(t, "float"):
		return FamilyFloat
	case t == "date":
		return FamilyDate
	case strings.HasPrefix(t, "timestamp") || t == "datetime" || strings.HasPrefix(t, "time"):
		return FamilyTimestamp
	case t == "uuid":
		return FamilyUUID
	case strings.HasPrefix(t, "json"):
		return FamilyJSON
	default:
		return FamilyText
	}
}

func unquote(s string) string {
	return strings.Trim(s, "`\"")
}

func isTableClause(line string) bool {
	end := strings.IndexAny(line, " \t(")
	if end < 0 {
		end = len(line)
	}
	return clauseKeywords[strings.ToLower(line[:end])]
}
