package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlkit/internal/core"
)

func filesTable(t *testing.T) *core.Table {
	t.Helper()
	files := core.NewTable("files")
	require.NoError(t, files.AddColumn("id", core.NewColumn("id", "int", 11)))
	require.NoError(t, files.AddColumn("name", core.NewColumn("name", "varchar", 100)))
	require.NoError(t, files.AddColumn("data", core.NewColumn("data", "mediumblob", 0)))
	return files
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInsert(t *testing.T) {
	b := New(usersTable(t))

	require.NoError(t, b.Insert([]Field{Value("name", "Alice")}))
	assert.Equal(t, "insert into users (name) values ('Alice');", b.Query())
	assert.Equal(t, TypeInsert, b.Type())
	assert.False(t, b.IsBlobOperation())

	require.NoError(t, b.Insert([]Field{Value("name", "O'Brien"), Value("age", 30), Value("created-on", nil)}))
	assert.Equal(t, `insert into users (name, age, created_on) values ('O\'Brien', 30, null);`, b.Query())
	requireParses(t, b.Query())
}

func TestInsertErrors(t *testing.T) {
	b := New(usersTable(t))
	require.NoError(t, b.Insert([]Field{Value("name", "Alice")}))

	assert.ErrorIs(t, b.Insert(nil), ErrNoValues)
	assert.ErrorIs(t, b.Insert([]Field{Value("missing", 1)}), core.ErrNoSuchColumn)
	assert.Equal(t, "insert into users (name) values ('Alice');", b.Query())
}

func TestInsertBlob(t *testing.T) {
	b := New(filesTable(t))
	path := writeFile(t, "ab'c")

	require.NoError(t, b.Insert([]Field{Value("name", "a.bin"), Value("data", path)}))
	assert.Equal(t, `insert into files (name, data) values ('a.bin', 'ab\'c');`, b.Query())
	assert.True(t, b.IsBlobOperation())

	require.NoError(t, b.SelectAll(0, 0))
	assert.False(t, b.IsBlobOperation())
}

func TestUpdate(t *testing.T) {
	b := New(usersTable(t))

	require.NoError(t, b.Update([]Field{Value("name", "Bob"), Value("age", 41)}, Eq(Value("user-id", 5))))
	assert.Equal(t, "update users set name = 'Bob', age = 41 where user_id = 5;", b.Query())
	assert.Equal(t, TypeUpdate, b.Type())
	requireParses(t, b.Query())

	require.NoError(t, b.Update([]Field{Value("age", 0)}, Where{}))
	assert.Equal(t, "update users set age = 0;", b.Query())

	assert.ErrorIs(t, b.Update(nil, Where{}), ErrNoValues)
	assert.ErrorIs(t, b.Update([]Field{Value("age", 1)}, Eq(Value("missing", 1))), core.ErrNoSuchColumn)
	assert.Equal(t, "update users set age = 0;", b.Query())
}

func TestDelete(t *testing.T) {
	b := New(usersTable(t))

	require.NoError(t, b.Delete(Eq(Value("user-id", 5))))
	assert.Equal(t, "delete from users where user_id = 5;", b.Query())
	assert.Equal(t, TypeDelete, b.Type())

	require.NoError(t, b.Delete(Where{}))
	assert.Equal(t, "delete from users;", b.Query())
	requireParses(t, b.Query())
}

func TestUpdateBlobFromFile(t *testing.T) {
	b := New(filesTable(t))
	path := writeFile(t, "x\x00y")

	require.NoError(t, b.UpdateBlobFromFile([]BlobFile{{Ref: "data", Path: path}}, 5, "id"))
	assert.Equal(t, `update files set data = 'x\0y' where id = 5;`, b.Query())
	assert.Equal(t, TypeUpdate, b.Type())
	assert.True(t, b.IsBlobOperation())

	t.Run("missing file", func(t *testing.T) {
		err := b.UpdateBlobFromFile([]BlobFile{{Ref: "data", Path: filepath.Join(t.TempDir(), "nope")}}, 6, "id")
		require.Error(t, err)
		assert.Equal(t, `update files set data = 'x\0y' where id = 5;`, b.Query())
	})

	t.Run("unknown id column is quoted when not numeric", func(t *testing.T) {
		require.NoError(t, b.UpdateBlobFromFile([]BlobFile{{Ref: "data", Path: path}}, "abc", "uuid"))
		assert.Equal(t, `update files set data = 'x\0y' where uuid = 'abc';`, b.Query())
	})

	t.Run("invalid id column", func(t *testing.T) {
		for _, idColumn := range []string{"id; drop table files", "", "id = 1 or 1"} {
			err := b.UpdateBlobFromFile([]BlobFile{{Ref: "data", Path: path}}, 1, idColumn)
			require.Error(t, err, idColumn)
			assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
			assert.Equal(t, `update files set data = 'x\0y' where uuid = 'abc';`, b.Query())
		}
	})
}
