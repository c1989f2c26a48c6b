package core

import (
	"fmt"
	"strings"
)

const (
	// DefaultColumnName is used when a column is constructed with an invalid name.
	DefaultColumnName = "col"

	// CurrentTimestamp is the default expression of temporal columns.
	CurrentTimestamp = "current_timestamp"
)

// Column describes one column of a table. A column belongs to at most one
// table; the owner back-reference is set by Table.AddColumn and does not
// keep the table alive on its own.
type Column struct {
	name       string
	typ        DataType
	size       int
	scale      int
	primary    bool
	autoInc    bool
	unique     bool
	nullable   bool
	hasDefault bool
	defaultVal string
	autoUpdate bool
	comment    string

	index int
	owner *Table
}

// NewColumn creates a column. Unsupported types fall back to varchar(1), an
// invalid name falls back to DefaultColumnName and a size of 0 or out of the
// type's range selects the type's default size.
func NewColumn(name, typ string, size int) *Column {
	c := &Column{name: DefaultColumnName, index: -1}
	if ValidIdentifier(name) {
		c.name = strings.TrimSpace(name)
	}
	dt, ok := NormalizeDataType(typ)
	if !ok {
		c.typ = TypeVarchar
		c.size = 1
		return c
	}
	c.typ = dt
	if dt == TypeDecimal {
		c.scale = 2
	}
	if _, _, def, sized := dt.SizeRange(); sized {
		c.size = def
		_ = c.SetSize(size)
	}
	return c
}

// Name returns the SQL name of the column.
func (c *Column) Name() string { return c.name }

// SetName renames the column. It fails on an invalid identifier or when the
// owning table already has another column with that name.
func (c *Column) SetName(name string) error {
	name = strings.TrimSpace(name)
	if !ValidIdentifier(name) {
		return &ValidationError{Entity: "column", Name: c.name, Field: "name", Message: fmt.Sprintf("invalid name %q", name), Err: ErrInvalidIdentifier}
	}
	if c.owner != nil {
		if other := c.owner.ColumnByName(name); other != nil && other != c {
			return &ValidationError{Entity: "column", Name: c.name, Field: "name", Message: fmt.Sprintf("duplicate column name %q", name), Err: ErrDuplicateName}
		}
	}
	c.name = name
	return nil
}

func (c *Column) Type() DataType { return c.typ }

// Size returns the declared size, or 0 for types that take none.
func (c *Column) Size() int { return c.size }

// SetSize changes the size of a sized type within its accepted range.
func (c *Column) SetSize(size int) error {
	lo, hi, _, ok := c.typ.SizeRange()
	if !ok || size < lo || size > hi {
		return &ValidationError{Entity: "column", Name: c.name, Field: "size", Err: ErrInvalidSize}
	}
	c.size = size
	if c.scale >= size {
		c.scale = size - 1
	}
	return nil
}

// Scale returns the number of fractional digits of a decimal column.
func (c *Column) Scale() int { return c.scale }

// SetScale sets the fractional digits of a decimal column. The scale must
// be lower than the size.
func (c *Column) SetScale(scale int) error {
	if c.typ != TypeDecimal || scale < 0 || scale >= c.size {
		return &ValidationError{Entity: "column", Name: c.name, Field: "scale", Err: ErrInvalidSize}
	}
	c.scale = scale
	return nil
}

func (c *Column) IsPrimary() bool { return c.primary }

// SetPrimary marks the column as part of the primary key. Primary columns
// are never nullable.
func (c *Column) SetPrimary(primary bool) {
	c.primary = primary
	if primary {
		c.nullable = false
	}
}

func (c *Column) IsAutoIncrement() bool { return c.autoInc }

// SetAutoIncrement toggles auto increment, which only integer columns support.
func (c *Column) SetAutoIncrement(autoInc bool) error {
	if autoInc && !c.typ.IsInteger() {
		return &ValidationError{Entity: "column", Name: c.name, Field: "auto_increment", Err: ErrNotInteger}
	}
	c.autoInc = autoInc
	return nil
}

func (c *Column) IsUnique() bool        { return c.unique }
func (c *Column) SetUnique(unique bool) { c.unique = unique }

func (c *Column) IsNullable() bool { return c.nullable }

// SetNullable allows null values. It has no effect on primary columns.
func (c *Column) SetNullable(nullable bool) {
	if c.primary {
		return
	}
	c.nullable = nullable
}

// SetDefault sets the default value. An empty value on a temporal column
// means current_timestamp; on any other column it clears the default.
func (c *Column) SetDefault(value string) {
	if value == "" {
		if c.typ.IsTemporal() {
			c.hasDefault, c.defaultVal = true, CurrentTimestamp
			return
		}
		c.hasDefault, c.defaultVal = false, ""
		return
	}
	if c.typ.IsTemporal() && strings.EqualFold(strings.TrimSpace(value), "now()") {
		value = CurrentTimestamp
	}
	c.hasDefault, c.defaultVal = true, value
}

// Default returns the default value and whether one is set.
func (c *Column) Default() (string, bool) { return c.defaultVal, c.hasDefault }

// DefaultIsExpression reports whether the default is the current_timestamp
// keyword rather than a literal.
func (c *Column) DefaultIsExpression() bool {
	return c.hasDefault && c.typ.IsTemporal() && strings.EqualFold(c.defaultVal, CurrentTimestamp)
}

// AutoUpdate makes a datetime or timestamp column take the current time on
// every update of its row. Auto-updated columns accept null.
func (c *Column) AutoUpdate() error {
	if !c.typ.IsTemporal() {
		return &ValidationError{Entity: "column", Name: c.name, Field: "on_update", Err: ErrNotTemporal}
	}
	c.autoUpdate = true
	c.SetNullable(true)
	return nil
}

func (c *Column) IsAutoUpdate() bool { return c.autoUpdate }

func (c *Column) Comment() string           { return c.comment }
func (c *Column) SetComment(comment string) { c.comment = comment }

// Index returns the position of the column in its table, or -1 when the
// column is not attached to a table.
func (c *Column) Index() int { return c.index }

// Owner returns the table the column belongs to, or nil.
func (c *Column) Owner() *Table { return c.owner }

// Clone returns a detached copy of the column.
func (c *Column) Clone() *Column {
	cp := *c
	cp.owner = nil
	cp.index = -1
	return &cp
}

func (c *Column) String() string { return c.name }
