package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlkit/internal/core"
	"sqlkit/internal/migration"
	"sqlkit/internal/query"
)

func TestSQLFormatterFormatMigration(t *testing.T) {
	m := blogMigration(t)

	out, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "-- sqlkit creation script for database 'blog'\n-- Review before running in production.\n"))
	assert.Contains(t, out, "\n-- SQL\ncreate table if not exists users (\n")
	assert.Contains(t, out, "alter table articles add constraint articles_author_fk foreign key (author_id) references users(user_id) on delete restrict on update cascade;\n")
	assert.Contains(t, out, "\n-- ROLLBACK SQL (run separately)\n-- drop table articles;\n-- drop table users;\n")
	assert.NotContains(t, out, "-- NOTES")
}

func TestSQLFormatterFormatMigrationNotes(t *testing.T) {
	m := blogMigration(t)
	m.AddNote("first line\nsecond line")

	out, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Contains(t, out, "\n-- NOTES\n-- - first line\n-- - second line\n")
}

func TestSQLFormatterFormatMigrationEmpty(t *testing.T) {
	out, err := sqlFormatter{}.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Equal(t, "-- sqlkit creation script\n-- Review before running in production.\n\n-- No SQL statements generated.\n", out)
}

func TestSQLFormatterFormatMigrationNil(t *testing.T) {
	out, err := sqlFormatter{}.FormatMigration(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLFormatterFormatQuery(t *testing.T) {
	out, err := sqlFormatter{}.FormatQuery(usersSelect(t))
	require.NoError(t, err)
	assert.Equal(t, "select * from users limit 10;\n", out)
}

func TestSQLFormatterFormatQueryMultiline(t *testing.T) {
	users := core.NewTable("users")
	require.NoError(t, users.AddColumn("name", core.NewColumn("name", "varchar", 20)))
	b := query.New(users)
	require.NoError(t, b.CreateStructure(false))

	out, err := sqlFormatter{}.FormatQuery(b)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "collate = utf8mb4_unicode_ci;\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n"))
}

func TestSQLFormatterFormatQueryBlob(t *testing.T) {
	files := core.NewTable("files")
	require.NoError(t, files.AddColumn("data", core.NewColumn("data", "blob", 0)))
	b := query.New(files)
	require.NoError(t, b.Insert([]query.Field{query.Value("data", []byte("raw bytes"))}))

	out, err := sqlFormatter{}.FormatQuery(b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "-- blob operation: run with set names binary\n"), out)
}

func TestSQLFormatterFormatQueryEmpty(t *testing.T) {
	out, err := sqlFormatter{}.FormatQuery(query.New(nil))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = sqlFormatter{}.FormatQuery(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFormatRollbackSQL(t *testing.T) {
	out := FormatRollbackSQL(blogMigration(t))
	assert.Equal(t, "-- sqlkit rollback\n-- Run to drop the created tables (review carefully).\n\n-- SQL\ndrop table articles;\ndrop table users;\n", out)

	assert.Contains(t, FormatRollbackSQL(&migration.Migration{}), "-- No rollback statements generated.")
	assert.Empty(t, FormatRollbackSQL(nil))
}

func TestWriteMigration(t *testing.T) {
	m := blogMigration(t)
	var buf bytes.Buffer
	require.NoError(t, WriteMigration(m, &buf))

	want, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Equal(t, want, buf.String())
}

func TestWriteRollback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRollback(blogMigration(t), &buf))
	assert.Contains(t, buf.String(), "drop table users;")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteMigrationPropagatesWriterError(t *testing.T) {
	err := WriteMigration(blogMigration(t), failingWriter{})
	assert.EqualError(t, err, "disk full")
}
