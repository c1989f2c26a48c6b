// Package mysql reads table definitions from MySQL DDL scripts: create table
// statements plus the alter table statements that add primary keys, foreign
// keys and auto increment, as produced by query.Builder.CreateStructure.
package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"sqlkit/internal/core"
)

// Parser converts DDL into a core.Database. A Parser is not safe for
// concurrent use.
type Parser struct {
	p       *parser.Parser
	version string
}

// Option configures a Parser.
type Option func(*Parser)

// WithServerVersion sets the server version of every parsed table.
func WithServerVersion(v string) Option {
	return func(p *Parser) { p.version = v }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{p: parser.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pendingKey is a foreign key waiting for every table to be known.
type pendingKey struct {
	table      *core.Table
	name       string
	columns    []string
	refTable   string
	refColumns []string
	onUpdate   string
	onDelete   string
}

type conversion struct {
	db      *core.Database
	pending []pendingKey
}

// Parse converts every create table statement of sql, then applies the
// alter table statements targeting those tables. Other statements are
// ignored. Column keys are the column names.
func (p *Parser) Parse(sql string) (*core.Database, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to parse DDL: %w", err)
	}

	conv := &conversion{db: &core.Database{ServerVersion: p.version}}
	for _, node := range stmtNodes {
		switch stmt := node.(type) {
		case *ast.CreateTableStmt:
			t, err := p.convertCreateTable(conv, stmt)
			if err != nil {
				return nil, fmt.Errorf("mysql: table %q: %w", stmt.Table.Name.O, err)
			}
			if err := conv.db.AddTable(t); err != nil {
				return nil, fmt.Errorf("mysql: %w", err)
			}
		case *ast.AlterTableStmt:
			if err := p.applyAlterTable(conv, stmt); err != nil {
				return nil, fmt.Errorf("mysql: alter table %q: %w", stmt.Table.Name.O, err)
			}
		}
	}
	if err := conv.resolveForeignKeys(); err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return conv.db, nil
}

func (p *Parser) convertCreateTable(conv *conversion, stmt *ast.CreateTableStmt) (*core.Table, error) {
	t := core.NewTable(stmt.Table.Name.O)
	if t.BaseName() != stmt.Table.Name.O {
		return nil, &core.ValidationError{Entity: "table", Name: stmt.Table.Name.O, Field: "name", Err: core.ErrInvalidIdentifier}
	}
	if schema := stmt.Table.Schema.O; schema != "" {
		if err := t.SetSchemaName(schema); err != nil {
			return nil, err
		}
	}
	if p.version != "" {
		if err := t.SetServerVersion(p.version); err != nil {
			return nil, err
		}
	}
	parseTableOptions(stmt.Options, t)

	for _, colDef := range stmt.Cols {
		if err := p.addColumn(conv, t, colDef); err != nil {
			return nil, err
		}
	}
	for _, constraint := range stmt.Constraints {
		if err := p.applyConstraint(conv, t, constraint); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (p *Parser) applyAlterTable(conv *conversion, stmt *ast.AlterTableStmt) error {
	t := conv.db.FindTable(stmt.Table.Name.O)
	if t == nil {
		return nil
	}
	for _, spec := range stmt.Specs {
		switch spec.Tp {
		case ast.AlterTableAddConstraint:
			if spec.Constraint != nil {
				if err := p.applyConstraint(conv, t, spec.Constraint); err != nil {
					return err
				}
			}
		case ast.AlterTableModifyColumn:
			for _, colDef := range spec.NewColumns {
				if err := p.modifyColumn(t, colDef); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *Parser) applyConstraint(conv *conversion, t *core.Table, constraint *ast.Constraint) error {
	columns := make([]string, 0, len(constraint.Keys))
	for _, key := range constraint.Keys {
		if key.Column != nil {
			columns = append(columns, key.Column.Name.O)
		}
	}

	switch constraint.Tp {
	case ast.ConstraintPrimaryKey:
		for _, name := range columns {
			col := t.ColumnByName(name)
			if col == nil {
				return noSuchColumn(t, name)
			}
			col.SetPrimary(true)
		}
	case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		if len(columns) == 1 {
			if col := t.ColumnByName(columns[0]); col != nil {
				col.SetUnique(true)
			}
		}
	case ast.ConstraintForeignKey:
		conv.pending = append(conv.pending, pendingFromReference(t, constraint.Name, columns, constraint.Refer))
	}
	return nil
}

func pendingFromReference(t *core.Table, name string, columns []string, refer *ast.ReferenceDef) pendingKey {
	pk := pendingKey{
		table:    t,
		name:     name,
		columns:  columns,
		refTable: refer.Table.Name.O,
		onUpdate: string(core.ActionRestrict),
		onDelete: string(core.ActionRestrict),
	}
	for _, spec := range refer.IndexPartSpecifications {
		if spec.Column != nil {
			pk.refColumns = append(pk.refColumns, spec.Column.Name.O)
		}
	}
	if refer.OnDelete != nil && refer.OnDelete.ReferOpt != ast.ReferOptionNoOption {
		pk.onDelete = refer.OnDelete.ReferOpt.String()
	}
	if refer.OnUpdate != nil && refer.OnUpdate.ReferOpt != ast.ReferOptionNoOption {
		pk.onUpdate = refer.OnUpdate.ReferOpt.String()
	}
	return pk
}

func (conv *conversion) resolveForeignKeys() error {
	for _, pk := range conv.pending {
		target := conv.db.FindTable(pk.refTable)
		if target == nil {
			return &core.ValidationError{Entity: "table", Name: pk.table.Name(), Field: pk.name, Message: fmt.Sprintf("referenced table %q is not defined", pk.refTable), Err: core.ErrNilTable}
		}
		name := pk.name
		if name == "" {
			name = fmt.Sprintf("%s_%s_fk", pk.table.BaseName(), strings.Join(pk.columns, "_"))
		}
		if err := pk.table.AddMultiReference(target, keysOf(pk.table, pk.columns), keysOf(target, pk.refColumns), name, pk.onUpdate, pk.onDelete); err != nil {
			return err
		}
	}
	return nil
}

// keysOf maps SQL names to column keys; unknown names are passed through so
// AddMultiReference reports them.
func keysOf(t *core.Table, names []string) []string {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = name
		if col := t.ColumnByName(name); col != nil {
			keys[i] = t.KeyOf(col)
		}
	}
	return keys
}

func noSuchColumn(t *core.Table, name string) error {
	return &core.ValidationError{Entity: "table", Name: t.Name(), Field: name, Message: fmt.Sprintf("no column %q", name), Err: core.ErrNoSuchColumn}
}
