package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDataType(t *testing.T) {
	tests := []struct {
		raw  string
		want DataType
		ok   bool
	}{
		{"int", TypeInt, true},
		{"INT", TypeInt, true},
		{" integer ", TypeInt, true},
		{"VarChar", TypeVarchar, true},
		{"mediumtext", TypeMediumText, true},
		{"bool", TypeBoolean, true},
		{"tinyint(1)", TypeBoolean, true},
		{"numeric", TypeDecimal, true},
		{"real", TypeDouble, true},
		{"longblob", TypeLongBlob, true},
		{"json", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDataType(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestDataTypeCategories(t *testing.T) {
	assert.True(t, TypeVarchar.IsText())
	assert.True(t, TypeMediumText.IsText())
	assert.False(t, TypeBlob.IsText())
	assert.True(t, TypeTimestamp.IsTemporal())
	assert.True(t, TypeDouble.IsDecimal())
	assert.True(t, TypeTinyBlob.IsBlob())
	assert.True(t, TypeInt.IsInteger())
	assert.False(t, TypeBoolean.IsInteger())
}

func TestDataTypeSizeRange(t *testing.T) {
	lo, hi, def, ok := TypeVarchar.SizeRange()
	assert.True(t, ok)
	assert.Equal(t, []int{1, 21845, 1}, []int{lo, hi, def})

	_, _, _, ok = TypeText.SizeRange()
	assert.False(t, ok)
}

func TestDatabaseFindTable(t *testing.T) {
	db := &Database{Name: "testdb", Tables: []*Table{NewTable("users"), NewTable("Products")}}

	t.Run("find existing table", func(t *testing.T) {
		table := db.FindTable("users")
		require.NotNil(t, table)
		assert.Equal(t, "users", table.Name())
	})

	t.Run("find existing table case insensitive", func(t *testing.T) {
		table := db.FindTable("products")
		require.NotNil(t, table)
		assert.Equal(t, "Products", table.Name())
	})

	t.Run("table not found", func(t *testing.T) {
		assert.Nil(t, db.FindTable("nonexistent"))
	})
}

func TestDatabaseAddTable(t *testing.T) {
	db := &Database{Name: "testdb"}
	require.NoError(t, db.AddTable(NewTable("users")))

	err := db.AddTable(NewTable("USERS"))
	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.True(t, errors.Is(db.AddTable(nil), ErrNilTable))
	assert.Len(t, db.Tables, 1)
}

func TestDatabaseOrderedTables(t *testing.T) {
	a, b, c := NewTable("a"), NewTable("b"), NewTable("c")
	require.NoError(t, a.SetOrder(2))
	require.NoError(t, c.SetOrder(1))
	db := &Database{Tables: []*Table{a, b, c}}

	var names []string
	for _, tbl := range db.OrderedTables() {
		names = append(names, tbl.Name())
	}
	assert.Equal(t, []string{"b", "c", "a"}, names)
	assert.Equal(t, "a", db.Tables[0].Name())
}

func TestParseReferences(t *testing.T) {
	table, column, ok := ParseReferences("users.id")
	assert.True(t, ok)
	assert.Equal(t, "users", table)
	assert.Equal(t, "id", column)

	_, _, ok = ParseReferences("users.")
	assert.False(t, ok)
	_, _, ok = ParseReferences("id")
	assert.False(t, ok)
}

func TestNormalizeComparator(t *testing.T) {
	for _, op := range []string{"=", "!=", "<", "<=", ">", ">="} {
		assert.Equal(t, op, NormalizeComparator(op))
	}
	assert.Equal(t, ">=", NormalizeComparator(" >= "))
	assert.Equal(t, "=", NormalizeComparator("like"))
	assert.Equal(t, "=", NormalizeComparator(""))
}

func TestNormalizeJoinOperator(t *testing.T) {
	assert.Equal(t, "or", NormalizeJoinOperator("OR"))
	assert.Equal(t, "and", NormalizeJoinOperator("and"))
	assert.Equal(t, "and", NormalizeJoinOperator("xor"))
}
