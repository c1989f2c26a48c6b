// Package migration assembles the creation script of a whole database.
// Tables are created in their order rank; every generated statement is
// parsed before it is handed out, so a Migration only carries valid SQL.
package migration

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"sqlkit/internal/core"
	"sqlkit/internal/query"
	"sqlkit/internal/sqlcheck"
)

// Statement is one statement of a migration, tagged with the table it
// belongs to and its query type.
type Statement struct {
	Table string
	SQL   string
	Type  query.Type
}

// Migration contains the creation script of a database, the same script
// split into statements, the statements undoing it and notes for the user.
type Migration struct {
	Database   string
	Script     string
	Statements []Statement
	Rollback   []Statement
	Notes      []string
}

// Options configures FromDatabase.
type Options struct {
	// Comments adds the "-- " lines describing every table to Script.
	Comments bool
}

// FromDatabase builds the creation script of db. Tables are sorted by
// order rank, ties keep their declaration order.
func FromDatabase(ctx context.Context, db *core.Database, opts Options) (*Migration, error) {
	if db == nil {
		return nil, &core.ValidationError{Entity: "database", Err: core.ErrNilTable}
	}
	m := &Migration{Database: db.Name}
	tables := db.OrderedTables()

	var script strings.Builder
	plain := make([]string, len(tables))
	for i, t := range tables {
		b := query.New(t)
		if err := b.CreateStructure(opts.Comments); err != nil {
			return nil, fmt.Errorf("create structure of %s: %w", t.Name(), err)
		}
		script.WriteString(b.Query())
		if opts.Comments {
			if err := b.CreateStructure(false); err != nil {
				return nil, fmt.Errorf("create structure of %s: %w", t.Name(), err)
			}
		}
		plain[i] = b.Query()
	}
	m.Script = script.String()

	checked, err := sqlcheck.CheckAll(ctx, plain)
	if err != nil {
		return nil, fmt.Errorf("check creation script: %w", err)
	}
	for i, stmts := range checked {
		for _, s := range stmts {
			m.AddStatement(tables[i].Name(), s.Text, typeOf(s.Kind))
		}
	}

	for i := len(tables) - 1; i >= 0; i-- {
		b := query.New(tables[i])
		if err := b.DropTable(); err != nil {
			return nil, fmt.Errorf("drop %s: %w", tables[i].Name(), err)
		}
		m.Rollback = append(m.Rollback, Statement{Table: tables[i].Name(), SQL: b.Query(), Type: b.Type()})
	}

	m.noteLateReferences(tables)
	return m, nil
}

// noteLateReferences records foreign keys pointing at a table that is
// created after the referencing one; running the script in order fails on
// them.
func (m *Migration) noteLateReferences(tables []*core.Table) {
	rank := make(map[*core.Table]int, len(tables))
	for i, t := range tables {
		rank[t] = i
	}
	for i, t := range tables {
		for _, fk := range t.ForeignKeys() {
			ref := fk.ReferencedTable()
			if ref == nil {
				continue
			}
			j, ok := rank[ref]
			if !ok {
				m.AddNote(fmt.Sprintf("foreign key %s of %s references %s, which is not part of the database", fk.Name(), t.Name(), ref.Name()))
				continue
			}
			if j > i {
				m.AddNote(fmt.Sprintf("foreign key %s of %s references %s, which is created later; raise the order of %s", fk.Name(), t.Name(), ref.Name(), t.Name()))
			}
		}
	}
}

func typeOf(k sqlcheck.Kind) query.Type {
	if t := query.Type(k); t.Valid() {
		return t
	}
	return ""
}

// AddStatement appends a statement; blank statements are ignored.
func (m *Migration) AddStatement(table, stmt string, typ query.Type) {
	if stmt = strings.TrimSpace(stmt); stmt == "" {
		return
	}
	m.Statements = append(m.Statements, Statement{Table: table, SQL: stmt, Type: typ})
}

// AddNote appends a note once; blank notes are ignored.
func (m *Migration) AddNote(msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	if slices.Contains(m.Notes, msg) {
		return
	}
	m.Notes = append(m.Notes, msg)
}

// SQLStatements returns the text of every statement, in execution order.
func (m *Migration) SQLStatements() []string {
	return texts(m.Statements)
}

// RollbackStatements returns the statements dropping the created tables,
// in execution order.
func (m *Migration) RollbackStatements() []string {
	return texts(m.Rollback)
}

// CountByType returns how many statements of each query type the migration
// runs.
func (m *Migration) CountByType() map[query.Type]int {
	out := make(map[query.Type]int)
	for _, s := range m.Statements {
		out[s.Type]++
	}
	return out
}

// Tables returns the names of the created tables, in creation order.
func (m *Migration) Tables() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range m.Statements {
		if _, ok := seen[s.Table]; ok {
			continue
		}
		seen[s.Table] = struct{}{}
		out = append(out, s.Table)
	}
	return out
}

func texts(stmts []Statement) []string {
	out := make([]string, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.SQL)
	}
	return out
}
