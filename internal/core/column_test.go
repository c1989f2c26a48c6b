package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewColumn(t *testing.T) {
	c := NewColumn("user_id", "varchar", 15)
	assert.Equal(t, "user_id", c.Name())
	assert.Equal(t, TypeVarchar, c.Type())
	assert.Equal(t, 15, c.Size())
	assert.Equal(t, -1, c.Index())
	assert.Nil(t, c.Owner())
	assert.False(t, c.IsNullable())
}

func TestNewColumnInvalidName(t *testing.T) {
	c := NewColumn("user id", "int", 0)
	assert.Equal(t, DefaultColumnName, c.Name())
}

func TestNewColumnUnknownType(t *testing.T) {
	c := NewColumn("payload", "json", 200)
	assert.Equal(t, TypeVarchar, c.Type())
	assert.Equal(t, 1, c.Size())
}

func TestNewColumnSizeOutOfRange(t *testing.T) {
	assert.Equal(t, 11, NewColumn("n", "int", 40).Size())
	assert.Equal(t, 1, NewColumn("s", "varchar", 30000).Size())
	assert.Equal(t, 0, NewColumn("body", "text", 100).Size())
}

func TestColumnDecimalScale(t *testing.T) {
	c := NewColumn("price", "decimal", 0)
	assert.Equal(t, 10, c.Size())
	assert.Equal(t, 2, c.Scale())

	require.NoError(t, c.SetScale(4))
	assert.Equal(t, 4, c.Scale())
	assert.True(t, errors.Is(c.SetScale(10), ErrInvalidSize))

	small := NewColumn("ratio", "decimal", 1)
	assert.Equal(t, 0, small.Scale())
}

func TestColumnSetName(t *testing.T) {
	c := NewColumn("name", "varchar", 20)
	require.NoError(t, c.SetName("  full_name "))
	assert.Equal(t, "full_name", c.Name())

	err := c.SetName("full name")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	assert.Equal(t, "full_name", c.Name())
}

func TestColumnSetNameDuplicateInOwner(t *testing.T) {
	table := NewTable("users")
	a := NewColumn("a", "int", 0)
	b := NewColumn("b", "int", 0)
	require.NoError(t, table.AddColumn("a", a))
	require.NoError(t, table.AddColumn("b", b))

	err := b.SetName("A")
	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.Equal(t, "b", b.Name())
}

func TestColumnSetPrimaryClearsNullable(t *testing.T) {
	c := NewColumn("id", "int", 0)
	c.SetNullable(true)
	assert.True(t, c.IsNullable())

	c.SetPrimary(true)
	assert.True(t, c.IsPrimary())
	assert.False(t, c.IsNullable())

	c.SetNullable(true)
	assert.False(t, c.IsNullable())
}

func TestColumnSetAutoIncrement(t *testing.T) {
	require.NoError(t, NewColumn("id", "int", 0).SetAutoIncrement(true))

	c := NewColumn("name", "varchar", 10)
	err := c.SetAutoIncrement(true)
	assert.True(t, errors.Is(err, ErrNotInteger))
	assert.False(t, c.IsAutoIncrement())
	assert.NoError(t, c.SetAutoIncrement(false))
}

func TestColumnSetDefault(t *testing.T) {
	t.Run("temporal empty means now", func(t *testing.T) {
		c := NewColumn("created_on", "timestamp", 0)
		c.SetDefault("")
		v, ok := c.Default()
		assert.True(t, ok)
		assert.Equal(t, CurrentTimestamp, v)
		assert.True(t, c.DefaultIsExpression())
	})

	t.Run("temporal now function", func(t *testing.T) {
		c := NewColumn("created_on", "datetime", 0)
		c.SetDefault("NOW()")
		v, _ := c.Default()
		assert.Equal(t, CurrentTimestamp, v)
	})

	t.Run("literal", func(t *testing.T) {
		c := NewColumn("status", "varchar", 10)
		c.SetDefault("new")
		v, ok := c.Default()
		assert.True(t, ok)
		assert.Equal(t, "new", v)
		assert.False(t, c.DefaultIsExpression())
	})

	t.Run("empty clears", func(t *testing.T) {
		c := NewColumn("status", "varchar", 10)
		c.SetDefault("new")
		c.SetDefault("")
		_, ok := c.Default()
		assert.False(t, ok)
	})
}

func TestColumnAutoUpdate(t *testing.T) {
	c := NewColumn("last_updated", "datetime", 0)
	require.NoError(t, c.AutoUpdate())
	assert.True(t, c.IsAutoUpdate())
	assert.True(t, c.IsNullable())

	err := NewColumn("name", "varchar", 10).AutoUpdate()
	assert.True(t, errors.Is(err, ErrNotTemporal))
}

func TestColumnClone(t *testing.T) {
	table := NewTable("users")
	c := NewColumn("email", "varchar", 100)
	c.SetUnique(true)
	require.NoError(t, table.AddColumn("email", c))

	cp := c.Clone()
	assert.Equal(t, "email", cp.Name())
	assert.True(t, cp.IsUnique())
	assert.Nil(t, cp.Owner())
	assert.Equal(t, -1, cp.Index())

	require.NoError(t, cp.SetName("mail"))
	assert.Equal(t, "email", c.Name())
}
