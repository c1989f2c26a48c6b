package mysql

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlkit/internal/core"
	"sqlkit/internal/query"
)

func testdataPath(file string) string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "testdata", file)
}

func parseBlog(t *testing.T) *core.Database {
	t.Helper()
	data, err := os.ReadFile(testdataPath("blog.sql"))
	require.NoError(t, err)
	db, err := NewParser().Parse(string(data))
	require.NoError(t, err)
	return db
}

func TestParseUsers(t *testing.T) {
	db := parseBlog(t)
	users := db.FindTable("users")
	require.NotNil(t, users)

	assert.Equal(t, "InnoDB", users.Engine())
	assert.Equal(t, "utf8mb4", users.Charset())
	assert.Equal(t, "Site users", users.Comment())
	assert.Equal(t, []string{"user_id", "email", "active"}, users.ColumnKeys())

	id := users.Column("user_id")
	assert.Equal(t, core.TypeInt, id.Type())
	assert.Equal(t, 11, id.Size())
	assert.True(t, id.IsPrimary())
	assert.True(t, id.IsAutoIncrement())
	assert.False(t, id.IsNullable())

	email := users.Column("email")
	assert.Equal(t, 120, email.Size())
	assert.True(t, email.IsUnique())

	active := users.Column("active")
	assert.Equal(t, core.TypeBoolean, active.Type())
	def, ok := active.Default()
	assert.True(t, ok)
	assert.Equal(t, "1", def)
}

func TestParseArticles(t *testing.T) {
	db := parseBlog(t)
	articles := db.FindTable("articles")
	require.NotNil(t, articles)

	assert.True(t, articles.Column("article_id").IsPrimary())
	assert.True(t, articles.Column("author_id").IsNullable())

	title, _ := articles.Column("title").Default()
	assert.Equal(t, "untitled", title)

	price := articles.Column("price")
	assert.Equal(t, core.TypeDecimal, price.Type())
	assert.Equal(t, 8, price.Size())
	assert.Equal(t, 2, price.Scale())

	assert.True(t, articles.Column("created_on").DefaultIsExpression())

	fk := articles.ForeignKey("articles_author_fk")
	require.NotNil(t, fk)
	assert.Equal(t, core.ActionCascade, fk.OnDelete())
	assert.Equal(t, core.ActionRestrict, fk.OnUpdate())
	assert.Same(t, db.FindTable("users"), fk.ReferencedTable())
}

func TestParseRoundTripsCreateStructure(t *testing.T) {
	users := core.NewTable("users")
	require.NoError(t, users.AddDefaultColumns(core.AllDefaultColumns()))
	require.NoError(t, users.AddColumn("name", core.NewColumn("name", "varchar", 40)))
	posts := core.NewTable("posts")
	require.NoError(t, posts.AddColumn("post_id", core.NewColumn("post_id", "int", 11)))
	require.NoError(t, posts.AddColumn("user_id", core.NewColumn("user_id", "int", 11)))
	require.NoError(t, posts.AddReference(users, "user_id", "id", "posts_user_fk", "cascade", "set null"))

	script := ""
	for _, tbl := range []*core.Table{users, posts} {
		b := query.New(tbl)
		require.NoError(t, b.CreateStructure(true))
		script += b.Query()
	}

	db, err := NewParser().Parse(script)
	require.NoError(t, err)

	parsed := db.FindTable("users")
	require.NotNil(t, parsed)
	assert.Equal(t, users.ColumnNames(), parsed.ColumnNames())
	id := parsed.Column("id")
	assert.True(t, id.IsPrimary())
	assert.True(t, id.IsAutoIncrement())
	assert.True(t, parsed.Column("last_updated").IsAutoUpdate())
	assert.True(t, parsed.Column("created_on").DefaultIsExpression())

	fk := db.FindTable("posts").ForeignKey("posts_user_fk")
	require.NotNil(t, fk)
	assert.Equal(t, core.ActionCascade, fk.OnUpdate())
	assert.Equal(t, core.ActionSetNull, fk.OnDelete())
}

func TestParseReferenceWithoutActions(t *testing.T) {
	db, err := NewParser().Parse(`create table users (id int not null, primary key (id));
create table posts (id int not null, user_id int, constraint posts_user_fk foreign key (user_id) references users (id));`)
	require.NoError(t, err)

	fk := db.FindTable("posts").ForeignKey("posts_user_fk")
	require.NotNil(t, fk)
	assert.Equal(t, core.ActionRestrict, fk.OnUpdate())
	assert.Equal(t, core.ActionRestrict, fk.OnDelete())

	model := core.NewForeignKey("posts_user_fk", db.FindTable("users"))
	assert.Equal(t, core.ActionSetNull, model.OnUpdate())
	assert.Equal(t, core.ActionSetNull, model.OnDelete())
}

func TestParseWithServerVersion(t *testing.T) {
	db, err := NewParser(WithServerVersion("8.0")).Parse("create table t (id int);")
	require.NoError(t, err)
	assert.Equal(t, core.Collation520, db.Tables[0].Collation())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want error
	}{
		{"unsupported type", "create table t (doc json);", core.ErrInvalidType},
		{"unknown referenced table", "create table t (a int, foreign key (a) references other (id));", core.ErrNilTable},
		{"unknown primary column", "create table t (a int); alter table t add constraint t_pk primary key (b);", core.ErrNoSuchColumn},
		{"auto increment on text", "create table t (a varchar(5) auto_increment);", core.ErrNotInteger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(tt.sql)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewParser().Parse("create table (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse DDL")
}

func TestTryUnquoteSQLStringLiteral(t *testing.T) {
	s, ok := tryUnquoteSQLStringLiteral("'it''s'")
	assert.True(t, ok)
	assert.Equal(t, "it's", s)

	s, ok = tryUnquoteSQLStringLiteral("_utf8mb4'x'")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = tryUnquoteSQLStringLiteral("42")
	assert.False(t, ok)
}
