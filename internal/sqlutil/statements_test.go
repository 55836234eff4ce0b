package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInsert(t *testing.T) {
	cols := []string{"w_id", "w_name"}

	assert.Equal(t,
		"INSERT INTO `warehouse` (`w_id`, `w_name`) VALUES (?, ?)",
		BuildInsert(MySQL, "warehouse", cols))
	assert.Equal(t,
		`INSERT INTO "warehouse" ("w_id", "w_name") VALUES ($1, $2)`,
		BuildInsert(Postgres, "warehouse", cols))
}

func TestBuildPointSelect(t *testing.T) {
	pk := []string{"d_w_id", "d_id"}

	assert.Equal(t,
		"SELECT * FROM `district` WHERE `d_w_id` = ? AND `d_id` = ?",
		BuildPointSelect(MySQL, "district", pk))
	assert.Equal(t,
		`SELECT * FROM "district" WHERE "d_w_id" = $1 AND "d_id" = $2`,
		BuildPointSelect(Postgres, "district", pk))
}

func TestBuildUpdate(t *testing.T) {
	t.Run("placeholders continue after SET columns", func(t *testing.T) {
		got := BuildUpdate(Postgres, "district", []string{"d_name", "d_tax"}, []string{"d_w_id", "d_id"})
		assert.Equal(t,
			`UPDATE "district" SET "d_name" = $1, "d_tax" = $2 WHERE "d_w_id" = $3 AND "d_id" = $4`,
			got)
	})

	t.Run("mysql", func(t *testing.T) {
		got := BuildUpdate(MySQL, "item", []string{"i_price"}, []string{"i_id"})
		assert.Equal(t, "UPDATE `item` SET `i_price` = ? WHERE `i_id` = ?", got)
	})
}

func TestBuildKeyScanAndCount(t *testing.T) {
	assert.Equal(t, "SELECT `a`, `b` FROM `t`", BuildKeyScan(MySQL, "t", []string{"a", "b"}))
	assert.Equal(t, `SELECT "id" FROM "t"`, BuildKeyScan(Postgres, "t", []string{"id"}))
	assert.Equal(t, "SELECT COUNT(*) FROM `t`", BuildCount(MySQL, "t"))
}
