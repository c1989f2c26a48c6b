package core

import (
	"strings"
)

// ReferentialAction is the action taken on the source rows when a
// referenced row is updated or deleted.
type ReferentialAction string

const (
	ActionSetNull    ReferentialAction = "set null"
	ActionCascade    ReferentialAction = "cascade"
	ActionRestrict   ReferentialAction = "restrict"
	ActionSetDefault ReferentialAction = "set default"
	ActionNoAction   ReferentialAction = "no action"
)

// DefaultForeignKeyName is the name of a key constructed without one.
const DefaultForeignKeyName = "key_name"

// ParseReferentialAction normalizes s to one of the five actions. Case and
// surrounding space are ignored; underscores and hyphens count as spaces.
// Anything unrecognized yields ActionSetNull.
func ParseReferentialAction(s string) ReferentialAction {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	switch ReferentialAction(s) {
	case ActionSetNull, ActionCascade, ActionRestrict, ActionSetDefault, ActionNoAction:
		return ReferentialAction(s)
	}
	return ActionSetNull
}

// ForeignKey is a named constraint from columns of a source table to columns
// of a referenced table. The source side is set when the key is attached
// with Table.AddForeignKey.
type ForeignKey struct {
	name           string
	source         *Table
	sourceCols     []*Column
	referenced     *Table
	referencedCols []*Column
	onUpdate       ReferentialAction
	onDelete       ReferentialAction
}

// NewForeignKey creates a key referencing table. An invalid name falls back
// to DefaultForeignKeyName.
func NewForeignKey(name string, referenced *Table) *ForeignKey {
	fk := &ForeignKey{
		name:       DefaultForeignKeyName,
		referenced: referenced,
		onUpdate:   ActionSetNull,
		onDelete:   ActionSetNull,
	}
	_ = fk.SetName(name)
	return fk
}

func (fk *ForeignKey) Name() string { return fk.name }

// SetName renames the key, keeping the previous name on failure.
func (fk *ForeignKey) SetName(name string) error {
	name = strings.TrimSpace(name)
	if !ValidIdentifier(name) {
		return &ValidationError{Entity: "foreign key", Name: fk.name, Field: "name", Err: ErrInvalidIdentifier}
	}
	fk.name = name
	return nil
}

// AddSourceColumn appends a column of the owning table.
func (fk *ForeignKey) AddSourceColumn(c *Column) error {
	if c == nil {
		return &ValidationError{Entity: "foreign key", Name: fk.name, Field: "source", Err: ErrNilColumn}
	}
	fk.sourceCols = append(fk.sourceCols, c)
	return nil
}

// AddReferencedColumn appends a column of the referenced table.
func (fk *ForeignKey) AddReferencedColumn(c *Column) error {
	if c == nil {
		return &ValidationError{Entity: "foreign key", Name: fk.name, Field: "referenced", Err: ErrNilColumn}
	}
	fk.referencedCols = append(fk.referencedCols, c)
	return nil
}

func (fk *ForeignKey) SourceTable() *Table          { return fk.source }
func (fk *ForeignKey) ReferencedTable() *Table      { return fk.referenced }
func (fk *ForeignKey) SourceColumns() []*Column     { return fk.sourceCols }
func (fk *ForeignKey) ReferencedColumns() []*Column { return fk.referencedCols }

// SourceNames returns the SQL names of the source columns.
func (fk *ForeignKey) SourceNames() []string { return columnNames(fk.sourceCols) }

// ReferencedNames returns the SQL names of the referenced columns.
func (fk *ForeignKey) ReferencedNames() []string { return columnNames(fk.referencedCols) }

func (fk *ForeignKey) OnUpdate() ReferentialAction { return fk.onUpdate }
func (fk *ForeignKey) OnDelete() ReferentialAction { return fk.onDelete }

// SetOnUpdate sets the on update action; see ParseReferentialAction.
func (fk *ForeignKey) SetOnUpdate(action string) { fk.onUpdate = ParseReferentialAction(action) }

// SetOnDelete sets the on delete action; see ParseReferentialAction.
func (fk *ForeignKey) SetOnDelete(action string) { fk.onDelete = ParseReferentialAction(action) }

func columnNames(cols []*Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names
}
