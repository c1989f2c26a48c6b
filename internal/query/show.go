package query

import (
	"fmt"
	"strings"
)

// Show builds "show <thing>;".
func (b *Builder) Show(thing string) {
	b.set("show "+strings.TrimSpace(thing)+";", TypeShow)
}

// ShowEngines builds "show engines;".
func (b *Builder) ShowEngines() { b.Show("engines") }

const (
	baseTable = "BASE TABLE"
	view      = "VIEW"
)

// SchemaTablesCount builds a query returning the number of tables of schema
// in the column tables_count.
func (b *Builder) SchemaTablesCount(schema string) {
	b.set(schemaQuery("count(*) as tables_count", baseTable, schema), TypeSelect)
}

// SchemaTables builds a query listing the table names of schema.
func (b *Builder) SchemaTables(schema string) {
	b.set(schemaQuery("TABLE_NAME", baseTable, schema), TypeSelect)
}

// SchemaViewsCount builds a query returning the number of views of schema
// in the column views_count.
func (b *Builder) SchemaViewsCount(schema string) {
	b.set(schemaQuery("count(*) as views_count", view, schema), TypeSelect)
}

// SchemaViews builds a query listing the view names of schema.
func (b *Builder) SchemaViews(schema string) {
	b.set(schemaQuery("TABLE_NAME", view, schema), TypeSelect)
}

func schemaQuery(what, tableType, schema string) string {
	return fmt.Sprintf("select %s from information_schema.tables where TABLE_TYPE = '%s' and TABLE_SCHEMA = %s;",
		what, tableType, QuoteString(schema))
}
