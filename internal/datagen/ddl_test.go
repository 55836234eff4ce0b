package datagen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const warehouseDDL = `CREATE TABLE warehouse (
  w_id int NOT NULL,
  w_name varchar(10),
  w_tax decimal(4,4),
  w_ytd decimal(12,2) NOT NULL,
  w_zip char(9),
  w_open date,
  w_updated timestamp without time zone,
  w_active boolean,
  w_small tinyint unsigned NOT NULL,
  PRIMARY KEY (w_id)
);`

func TestParseDDL(t *testing.T) {
	table, cols, err := ParseDDL(warehouseDDL)
	require.NoError(t, err)
	assert.Equal(t, "warehouse", table)
	require.Len(t, cols, 9)

	assert.Equal(t, Column{Name: "w_id", Type: "int", Family: FamilyInteger, NotNull: true}, cols[0])
	assert.Equal(t, Column{Name: "w_name", Type: "varchar", Family: FamilyText, Length: 10}, cols[1])
	assert.Equal(t, Column{Name: "w_tax", Type: "decimal", Family: FamilyDecimal, Precision: 4, Scale: 4}, cols[2])
	assert.Equal(t, 12, cols[3].Precision)
	assert.Equal(t, 2, cols[3].Scale)
	assert.True(t, cols[3].NotNull)
	assert.Equal(t, 9, cols[4].Length)
	assert.Equal(t, FamilyDate, cols[5].Family)
	assert.Equal(t, FamilyTimestamp, cols[6].Family)
	assert.Equal(t, FamilyBool, cols[7].Family)
	assert.True(t, cols[8].Unsigned)
	assert.Equal(t, "tinyint", cols[8].Type)
}

func TestParseDDL_QuotedAndMultiWordTypes(t *testing.T) {
	ddl := "CREATE TABLE `orders` (\n  `o_id` bigint NOT NULL,\n  \"o_note\" character varying(20),\n  o_score double precision,\n  o_tag enum('a','b')\n);"

	table, cols, err := ParseDDL(ddl)
	require.NoError(t, err)
	assert.Equal(t, "orders", table)
	require.Len(t, cols, 4)
	assert.Equal(t, "o_id", cols[0].Name)
	assert.Equal(t, "character varying", cols[1].Type)
	assert.Equal(t, 20, cols[1].Length)
	assert.Equal(t, FamilyFloat, cols[2].Family)
	assert.Equal(t, "enum", cols[3].Type)
	assert.Equal(t, 0, cols[3].Length)
}

func TestParseDDL_ColumnsNamedLikeClauses(t *testing.T) {
	ddl := `CREATE TABLE orders (
  index_id int NOT NULL,
  unique_code varchar(10) NOT NULL,
  checksum int,
  constraint_ref int,
  key_hint text,
  note text,
  PRIMARY KEY (index_id, unique_code),
  UNIQUE KEY uq_checksum (checksum),
  INDEX idx_note (note(10)),
  CONSTRAINT fk_ref FOREIGN KEY (constraint_ref) REFERENCES refs (id),
  CHECK(checksum > 0)
);`

	_, cols, err := ParseDDL(ddl)
	require.NoError(t, err)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"index_id", "unique_code", "checksum", "constraint_ref", "key_hint", "note"}, names)
	assert.True(t, cols[1].NotNull)
	assert.Equal(t, 10, cols[1].Length)
}

func TestParseDDL_Errors(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
	}{
		{"empty", ""},
		{"not create table", "SELECT 1"},
		{"no name", "CREATE TABLE (\n  a int\n);"},
		{"no columns", "CREATE TABLE t (\n);"},
		{"column without type", "CREATE TABLE t (\n  a\n);"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDDL(tt.ddl)
			assert.Error(t, err)
		})
	}
}
