// Package query builds MySQL statements from the tables of package core.
// A Builder is linked to one table and keeps the text and type of the last
// statement it built; it never talks to a database.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"sqlkit/internal/core"
)

// Type is the kind of statement a Builder produced.
type Type string

const (
	TypeSelect Type = "select"
	TypeUpdate Type = "update"
	TypeDelete Type = "delete"
	TypeInsert Type = "insert"
	TypeShow   Type = "show"
	TypeCreate Type = "create"
	TypeAlter  Type = "alter"
	TypeDrop   Type = "drop"
)

// Types returns every supported statement type.
func Types() []Type {
	return []Type{TypeSelect, TypeUpdate, TypeDelete, TypeInsert, TypeShow, TypeCreate, TypeAlter, TypeDrop}
}

// Valid reports whether t is one of Types.
func (t Type) Valid() bool { return slices.Contains(Types(), t) }

var (
	ErrNoTable         = errors.New("no table linked")
	ErrUnsupportedType = errors.New("unsupported query type")
	ErrNoOperations    = errors.New("no alter operations")
	ErrNoValues        = errors.New("no values")
	ErrInvalidDate     = errors.New("invalid date condition")
	ErrNestedJoin      = errors.New("builder is already a join")
	ErrReadOnlyJoin    = errors.New("join tables cannot be written")
)

// Builder builds statements against its linked table. The zero value has
// no table; only Show, ShowEngines and the information_schema queries work
// on it.
//
// To give a table its own query type, embed *Builder:
//
//	type UsersQuery struct{ *query.Builder }
type Builder struct {
	table *core.Table
	join  *core.JoinTable
	namer *core.JoinNamer

	query string
	typ   Type
	blob  bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithJoinNamer makes the builder and every join derived from it draw
// generated join names from n.
func WithJoinNamer(n *core.JoinNamer) Option {
	return func(b *Builder) { b.namer = n }
}

// New returns a builder linked to t.
func New(t *core.Table, opts ...Option) *Builder {
	b := &Builder{table: t}
	for _, opt := range opts {
		opt(b)
	}
	if b.namer == nil {
		b.namer = &core.JoinNamer{}
	}
	return b
}

// Table returns the linked table. For join builders it is the merged table.
func (b *Builder) Table() *core.Table { return b.table }

// JoinTable returns the join behind a builder created by Join, or nil.
func (b *Builder) JoinTable() *core.JoinTable { return b.join }

// Query returns the text of the last built statement.
func (b *Builder) Query() string { return b.query }

// Type returns the type of the last built statement.
func (b *Builder) Type() Type { return b.typ }

// IsBlobOperation reports whether the last insert or update inlined file
// contents. Executors switch the connection to binary before running such
// a statement.
func (b *Builder) IsBlobOperation() bool { return b.blob }

// SetQuery replaces the current statement. The type is matched case-insensitively.
func (b *Builder) SetQuery(text string, typ Type) error {
	t := Type(strings.ToLower(strings.TrimSpace(string(typ))))
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}
	b.query, b.typ = text, t
	return nil
}

// set is SetQuery for statements built by this package; an invalid type is
// a bug in the builder itself. It clears the blob flag.
func (b *Builder) set(text string, typ Type) {
	if err := b.SetQuery(text, typ); err != nil {
		panic(err)
	}
	b.blob = false
}

func (b *Builder) String() string {
	return fmt.Sprintf("Query: %s\nQuery Type: %s\n", b.query, b.typ)
}

// Column resolves ref against the linked table: first as a column key, then
// as a SQL column name, then as a position.
func (b *Builder) Column(ref string) *core.Column {
	if b.table == nil {
		return nil
	}
	if c := b.table.Column(ref); c != nil {
		return c
	}
	if c := b.table.ColumnByName(strings.TrimSpace(ref)); c != nil {
		return c
	}
	if i, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return b.table.ColumnAt(i)
	}
	return nil
}

// ColumnName returns the SQL name of the column ref resolves to, or "".
func (b *Builder) ColumnName(ref string) string {
	if c := b.Column(ref); c != nil {
		return c.Name()
	}
	return ""
}

// ColumnIndex returns the position of the column ref resolves to, or -1.
func (b *Builder) ColumnIndex(ref string) int {
	if c := b.Column(ref); c != nil {
		return c.Index()
	}
	return -1
}

// colRef returns the column name as used inside statements; join builders
// qualify it with the join name.
func (b *Builder) colRef(c *core.Column) string {
	if b.join != nil {
		return b.join.Name() + "." + c.Name()
	}
	return c.Name()
}

func (b *Builder) requireTable() error {
	if b.table == nil {
		return ErrNoTable
	}
	return nil
}

func (b *Builder) requireWritable() error {
	if err := b.requireTable(); err != nil {
		return err
	}
	if b.join != nil {
		return ErrReadOnlyJoin
	}
	return nil
}

func (b *Builder) noSuchColumn(ref string) error {
	return &core.ValidationError{Entity: "table", Name: b.tableName(), Field: ref, Message: fmt.Sprintf("no column %q", ref), Err: core.ErrNoSuchColumn}
}

func (b *Builder) tableName() string {
	if b.table == nil {
		return ""
	}
	return b.table.Name()
}
