package datagen

import (
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/elliotchance/orderedmap/v2"
)

// Row maps column names to values in DDL column order.
type Row = *orderedmap.OrderedMap[string, any]

const (
	maxTextLength   = 32
	maxDecimalWhole = 9
)

var (
	dateLow  = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	dateHigh = time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Generator produces random rows for one table. It is deterministic for a
// given DDL and seed and is not safe for concurrent use.
type Generator struct {
	table   string
	columns []Column
	byName  map[string]Column
	faker   *gofakeit.Faker
}

// New parses ddl and returns a generator seeded with seed.
func New(ddl string, seed uint64) (*Generator, error) {
	table, columns, err := ParseDDL(ddl)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Column, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	return &Generator{
		table:   table,
		columns: columns,
		byName:  byName,
		faker:   gofakeit.New(seed),
	}, nil
}

// Table returns the table name from the DDL.
func (g *Generator) Table() string { return g.table }

// Columns returns the parsed columns in DDL order.
func (g *Generator) Columns() []Column {
	out := make([]Column, len(g.columns))
	copy(out, g.columns)
	return out
}

// GenerateRow returns a fresh value for every column.
func (g *Generator) GenerateRow() Row {
	row := orderedmap.NewOrderedMap[string, any]()
	for _, c := range g.columns {
		row.Set(c.Name, g.value(c))
	}
	return row
}

// GenerateValue returns a fresh value for a single column.
func (g *Generator) GenerateValue(column string) (any, error) {
	c, ok := g.byName[column]
	if !ok {
		return nil, fmt.Errorf("table %s has no column %q", g.table, column)
	}
	return g.value(c), nil
}

func (g *Generator) value(c Column) any {
	f := g.faker
	switch c.Family {
	case FamilyInteger:
		return int64(f.IntRange(1, integerCeiling(c.Type)))
	case FamilyDecimal:
		whole := c.Precision - c.Scale
		if c.Precision == 0 {
			whole = 6
		}
		whole = min(max(whole, 1), maxDecimalWhole)
		limit := math.Pow10(whole) - 1
		scale := math.Pow10(c.Scale)
		return math.Round(f.Float64Range(0, limit)*scale) / scale
	case FamilyFloat:
		return f.Float64Range(0, 1e6)
	case FamilyDate:
		return f.DateRange(dateLow, dateHigh).Truncate(24 * time.Hour)
	case FamilyTimestamp:
		return f.DateRange(dateLow, dateHigh).Truncate(time.Second)
	case FamilyBool:
		return f.Bool()
	case FamilyUUID:
		return f.UUID()
	case FamilyJSON:
		return fmt.Sprintf(`{"%s": "%s"}`, f.Word(), f.Word())
	default:
		return g.text(c)
	}
}

func (g *Generator) text(c Column) string {
	switch {
	case c.Length == 0 && c.Type == "text":
		return g.faker.Sentence(5)
	case c.Length == 0:
		return g.faker.LetterN(uint(g.faker.IntRange(1, maxTextLength)))
	case c.Type == "char" || c.Type == "character":
		return g.faker.LetterN(uint(min(c.Length, maxTextLength)))
	default:
		return g.faker.LetterN(uint(g.faker.IntRange(1, min(c.Length, maxTextLength))))
	}
}

func integerCeiling(t string) int {
	switch t {
	case "tinyint":
		return math.MaxInt8
	case "smallint", "smallserial":
		return math.MaxInt16
	case "bigint", "bigserial":
		return 1_000_000_000
	default:
		return 1_000_000
	}
}
