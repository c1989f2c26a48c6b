package query

import (
	"fmt"
	"strconv"
	"strings"

	"sqlkit/internal/core"
)

// ColumnDefinition renders c as it appears in a create table statement.
// Primary key and auto increment are not part of it; they are added by
// the primary key statements.
func ColumnDefinition(c *core.Column) string {
	parts := []string{c.Name(), columnType(c)}
	if c.Type().IsText() && c.Owner() != nil {
		parts = append(parts, "collate "+c.Owner().Collation())
	}
	if c.IsNullable() {
		parts = append(parts, "null")
	} else {
		parts = append(parts, "not null")
	}
	if c.IsUnique() {
		parts = append(parts, "unique")
	}
	if def, ok := c.Default(); ok {
		parts = append(parts, "default "+defaultLiteral(c, def))
	}
	if c.IsAutoUpdate() {
		parts = append(parts, "on update "+core.CurrentTimestamp)
	}
	if cmt := c.Comment(); cmt != "" {
		parts = append(parts, "comment "+QuoteString(cmt))
	}
	return strings.Join(parts, " ")
}

func columnType(c *core.Column) string {
	t := string(c.Type())
	switch c.Type() {
	case core.TypeInt, core.TypeVarchar:
		return t + "(" + strconv.Itoa(c.Size()) + ")"
	case core.TypeDecimal:
		return t + "(" + strconv.Itoa(c.Size()) + "," + strconv.Itoa(c.Scale()) + ")"
	}
	return t
}

func defaultLiteral(c *core.Column, def string) string {
	if c.DefaultIsExpression() {
		return core.CurrentTimestamp
	}
	if strings.EqualFold(def, "null") {
		return "null"
	}
	if c.Type().IsBlob() {
		return QuoteString(def)
	}
	lit, _ := formatValue(c, def)
	return lit
}

// CreateStructure builds the create table statement of the linked table,
// followed by its primary key statements and one statement per foreign key.
// With comments, "-- " lines describe each part.
func (b *Builder) CreateStructure(comments bool) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	t := b.table

	var sb strings.Builder
	if comments {
		fmt.Fprintf(&sb, "-- Structure of the table '%s'\n", t.Name())
		fmt.Fprintf(&sb, "-- Number of columns: %d\n", t.ColumnsCount())
		fmt.Fprintf(&sb, "-- Number of foreign keys: %d\n", len(t.ForeignKeys()))
		fmt.Fprintf(&sb, "-- Number of primary key columns: %d\n", t.PrimaryKeyColumnsCount())
	}

	lines := make([]string, 0, t.ColumnsCount())
	for _, c := range t.Columns() {
		lines = append(lines, "    "+ColumnDefinition(c))
	}
	fmt.Fprintf(&sb, "create table if not exists %s (\n%s\n)\n", t.Name(), strings.Join(lines, ",\n"))
	if cmt := t.Comment(); cmt != "" {
		fmt.Fprintf(&sb, "comment %s\n", QuoteString(cmt))
	}
	fmt.Fprintf(&sb, "engine = %s\n", t.Engine())
	fmt.Fprintf(&sb, "default charset = %s\n", t.Charset())
	fmt.Fprintf(&sb, "collate = %s;\n", t.Collation())

	if pk := primaryKeyStatements(t); pk != "" {
		if comments {
			sb.WriteString("-- Add primary key to the table.\n")
		}
		sb.WriteString(pk)
	}
	if fks := t.ForeignKeys(); len(fks) > 0 {
		if comments {
			sb.WriteString("-- Add foreign keys to the table.\n")
		}
		for _, fk := range fks {
			sb.WriteString(foreignKeyStatement(fk))
			sb.WriteString(";\n")
		}
	}
	if comments {
		fmt.Fprintf(&sb, "-- End of the structure of the table '%s'\n", t.Name())
	}
	b.set(sb.String(), TypeCreate)
	return nil
}

// AddPrimaryKey builds the statement adding the primary key of t (the
// linked table when t is nil), plus one modify statement per auto increment
// primary column. With no primary columns the query is empty.
func (b *Builder) AddPrimaryKey(t *core.Table) error {
	if t == nil {
		if err := b.requireWritable(); err != nil {
			return err
		}
		t = b.table
	}
	b.set(primaryKeyStatements(t), TypeAlter)
	return nil
}

func primaryKeyStatements(t *core.Table) string {
	cols := t.PrimaryKeyColumns()
	if len(cols) == 0 {
		return ""
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "alter table %s add constraint %s primary key (%s);\n", t.Name(), t.PrimaryKeyName(), strings.Join(names, ","))
	for _, c := range cols {
		if c.IsAutoIncrement() {
			fmt.Fprintf(&sb, "alter table %s modify %s auto_increment;\n", t.Name(), ColumnDefinition(c))
		}
	}
	return sb.String()
}

// AddForeignKey builds the statement adding fk to its source table.
func (b *Builder) AddForeignKey(fk *core.ForeignKey) error {
	if fk == nil {
		return core.ErrNilForeignKey
	}
	if fk.SourceTable() == nil || fk.ReferencedTable() == nil {
		return fmt.Errorf("foreign key %s: %w", fk.Name(), ErrNoTable)
	}
	b.set(foreignKeyStatement(fk)+";", TypeAlter)
	return nil
}

func foreignKeyStatement(fk *core.ForeignKey) string {
	return fmt.Sprintf("alter table %s add constraint %s foreign key (%s) references %s(%s) on delete %s on update %s",
		fk.SourceTable().Name(), fk.Name(),
		strings.Join(fk.SourceNames(), ", "),
		fk.ReferencedTable().Name(), strings.Join(fk.ReferencedNames(), ", "),
		fk.OnDelete(), fk.OnUpdate())
}

// Alter builds "alter table <table> op1, op2, ...;".
func (b *Builder) Alter(ops []string) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	var clean []string
	for _, op := range ops {
		if op = strings.TrimSpace(op); op != "" {
			clean = append(clean, op)
		}
	}
	if len(clean) == 0 {
		return ErrNoOperations
	}
	b.set(fmt.Sprintf("alter table %s %s;", b.table.Name(), strings.Join(clean, ", ")), TypeAlter)
	return nil
}

// DropTable builds "drop table <table>;".
func (b *Builder) DropTable() error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	b.set(fmt.Sprintf("drop table %s;", b.table.Name()), TypeDrop)
	return nil
}
