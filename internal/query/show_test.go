package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShow(t *testing.T) {
	var b Builder

	b.ShowEngines()
	assert.Equal(t, "show engines;", b.Query())
	assert.Equal(t, TypeShow, b.Type())

	b.Show(" tables ")
	assert.Equal(t, "show tables;", b.Query())
	requireParses(t, b.Query())
}

func TestSchemaQueries(t *testing.T) {
	b := New(nil)

	tests := []struct {
		name  string
		build func(string)
		want  string
	}{
		{"tables count", b.SchemaTablesCount, "select count(*) as tables_count from information_schema.tables where TABLE_TYPE = 'BASE TABLE' and TABLE_SCHEMA = 'shop';"},
		{"tables", b.SchemaTables, "select TABLE_NAME from information_schema.tables where TABLE_TYPE = 'BASE TABLE' and TABLE_SCHEMA = 'shop';"},
		{"views count", b.SchemaViewsCount, "select count(*) as views_count from information_schema.tables where TABLE_TYPE = 'VIEW' and TABLE_SCHEMA = 'shop';"},
		{"views", b.SchemaViews, "select TABLE_NAME from information_schema.tables where TABLE_TYPE = 'VIEW' and TABLE_SCHEMA = 'shop';"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.build("shop")
			assert.Equal(t, tt.want, b.Query())
			assert.Equal(t, TypeSelect, b.Type())
			requireParses(t, b.Query())
		})
	}
}
