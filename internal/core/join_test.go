package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJoinSides(t *testing.T) (*Table, *Table) {
	t.Helper()
	left := NewTable("users")
	require.NoError(t, left.AddColumn("user-id", NewColumn("user_id", "int", 11)))
	require.NoError(t, left.AddColumn("name", NewColumn("name", "varchar", 50)))

	right := NewTable("profiles")
	require.NoError(t, right.AddColumn("user-id", NewColumn("user_id", "int", 11)))
	require.NoError(t, right.AddColumn("bio", NewColumn("bio", "text", 0)))
	require.NoError(t, right.AddColumn("owner", NewColumn("owner", "varchar", 50)))
	return left, right
}

func TestNewJoinTableMergesColumns(t *testing.T) {
	left, right := newJoinSides(t)

	jt, err := NewJoinTable(left, right, "user_profiles", nil)
	require.NoError(t, err)

	assert.Equal(t, "user_profiles", jt.Name())
	assert.Equal(t, left.ColumnsCount()+right.ColumnsCount(), jt.ColumnsCount())
	assert.Equal(t, []string{"left-user-id", "name", "right-user-id", "bio", "owner"}, jt.ColumnKeys())
	assert.Equal(t, []string{"left_user_id", "name", "right_user_id", "bio", "owner"}, jt.ColumnNames())
	assert.Nil(t, jt.ColumnByName("user_id"))
	assert.True(t, jt.HasCollisions())
	assert.Equal(t, JoinLeft, jt.JoinType())
	assert.Equal(t, "", jt.Condition())
}

func TestNewJoinTableLeavesSourcesUntouched(t *testing.T) {
	left, right := newJoinSides(t)

	_, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	assert.Equal(t, "user_id", left.Column("user-id").Name())
	assert.Same(t, left, left.Column("user-id").Owner())
	assert.Equal(t, "user_id", right.Column("user-id").Name())
}

func TestNewJoinTableOrigins(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	for _, key := range jt.ColumnKeys() {
		side, srcKey, ok := jt.Origin(key)
		require.True(t, ok, key)
		src := jt.SourceTable(side).Column(srcKey)
		require.NotNil(t, src, key)
		assert.Same(t, src, jt.SourceColumn(key))
	}

	side, srcKey, ok := jt.Origin("right-user-id")
	assert.True(t, ok)
	assert.Equal(t, SideRight, side)
	assert.Equal(t, "user-id", srcKey)

	_, _, ok = jt.Origin("missing")
	assert.False(t, ok)
	assert.Nil(t, jt.SourceColumn("missing"))
}

func TestNewJoinTableKeyCollisionOnly(t *testing.T) {
	left := NewTable("a")
	require.NoError(t, left.AddColumn("ref", NewColumn("a_ref", "int", 0)))
	right := NewTable("b")
	require.NoError(t, right.AddColumn("ref", NewColumn("b_ref", "int", 0)))

	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"left-ref", "right-ref"}, jt.ColumnKeys())
	assert.Equal(t, []string{"a_ref", "b_ref"}, jt.ColumnNames())
	assert.False(t, jt.HasCollisions())
}

func TestNewJoinTablePrefixTaken(t *testing.T) {
	left := NewTable("a")
	require.NoError(t, left.AddColumn("x", NewColumn("x", "int", 11)))
	require.NoError(t, left.AddColumn("left-x", NewColumn("left_x", "int", 11)))
	right := NewTable("b")
	require.NoError(t, right.AddColumn("x", NewColumn("x", "int", 11)))
	require.NoError(t, right.AddColumn("right-x", NewColumn("right_x", "varchar", 20)))

	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	assert.Equal(t, left.ColumnsCount()+right.ColumnsCount(), jt.ColumnsCount())
	assert.Equal(t, []string{"left-x-2", "left-x", "right-x-2", "right-x"}, jt.ColumnKeys())
	assert.Equal(t, []string{"left_x_2", "left_x", "right_x_2", "right_x"}, jt.ColumnNames())

	side, srcKey, ok := jt.Origin("left-x-2")
	require.True(t, ok)
	assert.Equal(t, SideLeft, side)
	assert.Equal(t, "x", srcKey)
	assert.Same(t, right.Column("right-x"), jt.SourceColumn("right-x"))
}

func TestJoinTableIsReadOnly(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)
	keys := jt.ColumnKeys()

	assert.ErrorIs(t, jt.SetName("other"), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.SetSchemaName("shop"), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.AddColumn("extra", NewColumn("extra", "int", 11)), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.AddDefaultColumns(AllDefaultColumns()), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.AddReference(right, "name", "owner", "j_fk", "", ""), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.AddMultiReference(right, []string{"name"}, []string{"owner"}, "j_fk", "", ""), ErrReadOnlyTable)
	assert.ErrorIs(t, jt.AddForeignKey(NewForeignKey("j_fk", right)), ErrReadOnlyTable)
	assert.False(t, jt.RemoveColumn("name"))
	assert.False(t, jt.RemoveColumnAt(0))

	assert.Equal(t, "j", jt.Name())
	assert.Equal(t, keys, jt.ColumnKeys())
	assert.Empty(t, jt.ForeignKeys())
}

func TestNewJoinTableGeneratedNames(t *testing.T) {
	left, right := newJoinSides(t)
	namer := &JoinNamer{}

	first, err := NewJoinTable(left, right, "", namer)
	require.NoError(t, err)
	second, err := NewJoinTable(left, right, "bad name", namer)
	require.NoError(t, err)
	named, err := NewJoinTable(left, right, "explicit", namer)
	require.NoError(t, err)
	fourth, err := NewJoinTable(left, right, "", namer)
	require.NoError(t, err)

	assert.Equal(t, "T0", first.Name())
	assert.Equal(t, "T1", second.Name())
	assert.Equal(t, "explicit", named.Name())
	assert.Equal(t, "T3", fourth.Name())

	namer.Reset()
	assert.Equal(t, "T0", namer.Next())
}

func TestNewJoinTableErrors(t *testing.T) {
	left, _ := newJoinSides(t)

	_, err := NewJoinTable(left, nil, "j", nil)
	assert.True(t, errors.Is(err, ErrNilTable))

	_, err = NewJoinTable(left, left, "", nil)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestNewJoinTableInheritsSettings(t *testing.T) {
	left, right := newJoinSides(t)
	require.NoError(t, left.SetServerVersion("8.0"))
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)
	assert.Equal(t, Collation520, jt.Collation())
}

func TestParseJoinType(t *testing.T) {
	assert.Equal(t, JoinInner, ParseJoinType(" INNER "))
	assert.Equal(t, JoinRight, ParseJoinType("right"))
	assert.Equal(t, JoinCross, ParseJoinType("cross"))
	assert.Equal(t, JoinLeft, ParseJoinType("outer"))
}

func TestJoinTableSetJoinCondition(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	err = jt.SetJoinCondition([]ColumnPair{{Left: "user-id", Right: "user-id"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "on users.user_id = profiles.user_id", jt.Condition())
}

func TestJoinTableSetJoinConditionMultiple(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	err = jt.SetJoinCondition(
		[]ColumnPair{{Left: "user-id", Right: "user-id"}, {Left: "name", Right: "owner"}},
		[]string{"=", "!="},
		[]string{"OR"},
	)
	require.NoError(t, err)
	assert.Equal(t, "on users.user_id = profiles.user_id or users.name != profiles.owner", jt.Condition())
}

func TestJoinTableSetJoinConditionSkipsBadPairs(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	err = jt.SetJoinCondition([]ColumnPair{
		{Left: "name", Right: "bio"},
		{Left: "missing", Right: "user-id"},
		{Left: "user-id", Right: "user-id"},
	}, []string{"=", "=", "like"}, nil)

	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.True(t, errors.Is(err, ErrNoSuchColumn))
	assert.Equal(t, "on users.user_id = profiles.user_id", jt.Condition())
}

func TestJoinTableSetJoinConditionReplaces(t *testing.T) {
	left, right := newJoinSides(t)
	jt, err := NewJoinTable(left, right, "j", nil)
	require.NoError(t, err)

	require.NoError(t, jt.SetJoinCondition([]ColumnPair{{Left: "user-id", Right: "user-id"}}, nil, nil))
	require.NoError(t, jt.SetJoinCondition([]ColumnPair{{Left: "name", Right: "owner"}}, nil, nil))
	assert.Equal(t, "on users.name = profiles.owner", jt.Condition())
}
