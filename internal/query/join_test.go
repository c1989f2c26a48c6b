package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlkit/internal/core"
	"sqlkit/internal/sqlcheck"
)

func joinSides(t *testing.T) (*core.Table, *core.Table) {
	t.Helper()
	articles := core.NewTable("articles")
	require.NoError(t, articles.AddColumn("author-id", core.NewColumn("author_id", "int", 11)))
	require.NoError(t, articles.AddColumn("title", core.NewColumn("title", "varchar", 200)))

	users := core.NewTable("system_users")
	require.NoError(t, users.AddColumn("user-id", core.NewColumn("user_id", "int", 11)))
	require.NoError(t, users.AddColumn("name", core.NewColumn("name", "varchar", 50)))
	return articles, users
}

func TestJoinSelect(t *testing.T) {
	articles, users := joinSides(t)
	b := New(articles)

	jb, err := b.Join(users, JoinOptions{On: []core.ColumnPair{{Left: "author-id", Right: "user-id"}}})
	require.NoError(t, err)
	assert.Equal(t, "T0", jb.Table().Name())
	assert.NotNil(t, jb.JoinTable())

	require.NoError(t, jb.SelectAll(0, 0))
	assert.Equal(t, "select * from (select * from articles left join system_users on articles.author_id = system_users.user_id) as T0;", jb.Query())
	requireParses(t, jb.Query())

	require.NoError(t, jb.Select(SelectOptions{Columns: []string{"title"}, Where: Eq(Value("name", "Ann"))}))
	assert.Equal(t, "select T0.title from (select * from articles left join system_users on articles.author_id = system_users.user_id) as T0 where T0.name = 'Ann';", jb.Query())
	requireParses(t, jb.Query())

	require.NoError(t, jb.SelectCount(CountOptions{}))
	assert.Equal(t, "select count(*) as count from (select * from articles left join system_users on articles.author_id = system_users.user_id) as T0;", jb.Query())
}

func TestJoinNamesAdvance(t *testing.T) {
	articles, users := joinSides(t)
	namer := &core.JoinNamer{}
	b := New(articles, WithJoinNamer(namer))

	first, err := b.Join(users, JoinOptions{})
	require.NoError(t, err)
	second, err := b.Join(users, JoinOptions{Type: "inner"})
	require.NoError(t, err)
	named, err := b.Join(users, JoinOptions{Name: "authored"})
	require.NoError(t, err)

	assert.Equal(t, "T0", first.Table().Name())
	assert.Equal(t, "T1", second.Table().Name())
	assert.Equal(t, "authored", named.Table().Name())

	require.NoError(t, second.SelectAll(0, 0))
	assert.Equal(t, "select * from (select * from articles cross join system_users) as T1;", second.Query())
}

func TestJoinWithoutConditionIsCross(t *testing.T) {
	articles, users := joinSides(t)

	for _, typ := range []string{"", "left", "right", "inner", "cross"} {
		jb, err := New(articles).Join(users, JoinOptions{Name: "j", Type: typ})
		require.NoError(t, err)
		require.NoError(t, jb.SelectAll(0, 0))
		assert.Equal(t, "select * from (select * from articles cross join system_users) as j;", jb.Query(), typ)
		assert.True(t, sqlcheck.Valid(jb.Query()), typ)
	}
}

func TestJoinOnlySkippedPairsIsCross(t *testing.T) {
	articles, users := joinSides(t)

	jb, err := New(articles).Join(users, JoinOptions{Name: "j", On: []core.ColumnPair{{Left: "missing", Right: "name"}}})
	require.Error(t, err)
	require.NotNil(t, jb)
	assert.Empty(t, jb.JoinTable().Condition())

	require.NoError(t, jb.SelectAll(0, 0))
	assert.Equal(t, "select * from (select * from articles cross join system_users) as j;", jb.Query())
	assert.True(t, sqlcheck.Valid(jb.Query()))

	require.NoError(t, jb.JoinTable().SetJoinCondition([]core.ColumnPair{{Left: "author-id", Right: "user-id"}}, nil, nil))
	require.NoError(t, jb.SelectAll(0, 0))
	assert.Equal(t, "select * from (select * from articles left join system_users on articles.author_id = system_users.user_id) as j;", jb.Query())
}

func TestJoinWithCollisions(t *testing.T) {
	left := core.NewTable("articles")
	require.NoError(t, left.AddColumn("id", core.NewColumn("id", "int", 11)))
	require.NoError(t, left.AddColumn("title", core.NewColumn("title", "varchar", 200)))
	right := core.NewTable("comments")
	require.NoError(t, right.AddColumn("id", core.NewColumn("id", "int", 11)))
	require.NoError(t, right.AddColumn("article-id", core.NewColumn("article_id", "int", 11)))

	jb, err := New(left).Join(right, JoinOptions{Name: "j", Type: "inner", On: []core.ColumnPair{{Left: "id", Right: "article-id"}}})
	require.NoError(t, err)

	require.NoError(t, jb.Select(SelectOptions{Columns: []string{"left-id", "right-id"}}))
	assert.Equal(t, "select j.left_id, j.right_id from (select articles.id as left_id, articles.title, comments.id as right_id, comments.article_id from articles inner join comments on articles.id = comments.article_id) as j;", jb.Query())
	requireParses(t, jb.Query())
}

func TestJoinErrors(t *testing.T) {
	articles, users := joinSides(t)
	b := New(articles)

	t.Run("skipped pairs", func(t *testing.T) {
		jb, err := b.Join(users, JoinOptions{On: []core.ColumnPair{{Left: "author-id", Right: "user-id"}, {Left: "missing", Right: "name"}, {Left: "title", Right: "user-id"}}})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNoSuchColumn)
		assert.ErrorIs(t, err, core.ErrTypeMismatch)
		require.NotNil(t, jb)
		assert.Equal(t, "on articles.author_id = system_users.user_id", jb.JoinTable().Condition())
	})

	t.Run("read only", func(t *testing.T) {
		jb, err := b.Join(users, JoinOptions{})
		require.NoError(t, err)
		assert.ErrorIs(t, jb.Insert([]Field{Value("title", "x")}), ErrReadOnlyJoin)
		assert.ErrorIs(t, jb.DropTable(), ErrReadOnlyJoin)
		assert.ErrorIs(t, jb.CreateStructure(false), ErrReadOnlyJoin)

		_, err = jb.Join(users, JoinOptions{})
		assert.ErrorIs(t, err, ErrNestedJoin)
	})

	t.Run("nil table", func(t *testing.T) {
		_, err := b.Join(nil, JoinOptions{})
		assert.ErrorIs(t, err, core.ErrNilTable)
	})
}

func TestJoinView(t *testing.T) {
	articles, users := joinSides(t)
	jb, err := New(articles).Join(users, JoinOptions{Name: "j", On: []core.ColumnPair{{Left: "author-id", Right: "user-id"}}})
	require.NoError(t, err)

	require.NoError(t, jb.Select(SelectOptions{View: "article_authors", Columns: []string{"title", "name"}}))
	assert.Equal(t, "create view article_authors as (select j.title, j.name from (select * from articles left join system_users on articles.author_id = system_users.user_id) as j);", jb.Query())
	assert.Equal(t, TypeCreate, jb.Type())
}
