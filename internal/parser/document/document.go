// Package document holds the format-neutral table definition document that
// the TOML and YAML parsers decode into, and converts it into a
// core.Database.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"sqlkit/internal/core"
)

// Schema is the top-level document.
type Schema struct {
	Database Database `toml:"database" yaml:"database"`
	Tables   []Table  `toml:"tables" yaml:"tables"`
}

// Database maps [database].
type Database struct {
	Name          string `toml:"name" yaml:"name"`
	ServerVersion string `toml:"server_version" yaml:"server_version"`
}

// Table maps [[tables]].
type Table struct {
	Name    string `toml:"name" yaml:"name"`
	Schema  string `toml:"schema" yaml:"schema"`
	Order   int    `toml:"order" yaml:"order"`
	Engine  string `toml:"engine" yaml:"engine"`
	Charset string `toml:"charset" yaml:"charset"`
	Comment string `toml:"comment" yaml:"comment"`
	// ServerVersion overrides [database].server_version for this table.
	ServerVersion string `toml:"server_version" yaml:"server_version"`

	DefaultColumns *core.DefaultColumns `toml:"default_columns" yaml:"default_columns"`
	Columns        []Column             `toml:"columns" yaml:"columns"`
	ForeignKeys    []ForeignKey         `toml:"foreign_keys" yaml:"foreign_keys"`
}

// Column maps [[tables.columns]].
type Column struct {
	// Key defaults to Name.
	Key           string `toml:"key" yaml:"key"`
	Name          string `toml:"name" yaml:"name"`
	Type          string `toml:"type" yaml:"type"`
	Size          int    `toml:"size" yaml:"size"`
	Scale         *int   `toml:"scale" yaml:"scale"`
	PrimaryKey    bool   `toml:"primary_key" yaml:"primary_key"`
	AutoIncrement bool   `toml:"auto_increment" yaml:"auto_increment"`
	Unique        bool   `toml:"unique" yaml:"unique"`
	Nullable      bool   `toml:"nullable" yaml:"nullable"`
	// Default accepts a string, bool or number; it is normalized to a string.
	Default    any    `toml:"default" yaml:"default"`
	AutoUpdate bool   `toml:"auto_update" yaml:"auto_update"`
	Comment    string `toml:"comment" yaml:"comment"`

	// References is an inline single-column foreign key, "table.key".
	References string `toml:"references" yaml:"references"`
	OnUpdate   string `toml:"on_update" yaml:"on_update"`
	OnDelete   string `toml:"on_delete" yaml:"on_delete"`
}

// ForeignKey maps [[tables.foreign_keys]].
type ForeignKey struct {
	Name              string   `toml:"name" yaml:"name"`
	Columns           []string `toml:"columns" yaml:"columns"`
	References        string   `toml:"references" yaml:"references"`
	ReferencedColumns []string `toml:"referenced_columns" yaml:"referenced_columns"`
	OnUpdate          string   `toml:"on_update" yaml:"on_update"`
	OnDelete          string   `toml:"on_delete" yaml:"on_delete"`
}

// Convert builds the database described by s. Tables are created first so
// foreign keys may reference tables declared later in the document.
func Convert(s *Schema) (*core.Database, error) {
	return newConverter(s).convert()
}

type converter struct {
	s  *Schema
	db *core.Database
}

func newConverter(s *Schema) *converter {
	return &converter{
		s: s,
		db: &core.Database{
			Name:          strings.TrimSpace(s.Database.Name),
			ServerVersion: strings.TrimSpace(s.Database.ServerVersion),
			Tables:        make([]*core.Table, 0, len(s.Tables)),
		},
	}
}

func (c *converter) convert() (*core.Database, error) {
	for i := range c.s.Tables {
		dt := &c.s.Tables[i]
		t, err := c.convertTable(dt)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", dt.Name, err)
		}
		if err := c.db.AddTable(t); err != nil {
			return nil, err
		}
	}
	for i := range c.s.Tables {
		dt := &c.s.Tables[i]
		if err := c.convertForeignKeys(c.db.Tables[i], dt); err != nil {
			return nil, fmt.Errorf("table %q: %w", dt.Name, err)
		}
	}
	return c.db, nil
}

func (c *converter) convertTable(dt *Table) (*core.Table, error) {
	if !core.ValidIdentifier(dt.Name) {
		return nil, &core.ValidationError{Entity: "table", Name: dt.Name, Field: "name", Err: core.ErrInvalidIdentifier}
	}
	t := core.NewTable(dt.Name)
	if dt.Schema != "" {
		if err := t.SetSchemaName(dt.Schema); err != nil {
			return nil, err
		}
	}
	if err := t.SetOrder(dt.Order); err != nil {
		return nil, err
	}
	if dt.Engine != "" {
		t.SetEngine(dt.Engine)
	}
	if dt.Charset != "" {
		t.SetCharset(dt.Charset)
	}
	t.SetComment(dt.Comment)

	version := dt.ServerVersion
	if version == "" {
		version = c.db.ServerVersion
	}
	if version != "" {
		if err := t.SetServerVersion(version); err != nil {
			return nil, err
		}
	}

	if dt.DefaultColumns != nil {
		if err := t.AddDefaultColumns(*dt.DefaultColumns); err != nil {
			return nil, err
		}
	}
	for i := range dt.Columns {
		dc := &dt.Columns[i]
		col, err := convertColumn(dc)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", dc.Name, err)
		}
		key := dc.Key
		if key == "" {
			key = dc.Name
		}
		if err := t.AddColumn(key, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func convertColumn(dc *Column) (*core.Column, error) {
	if !core.ValidIdentifier(dc.Name) {
		return nil, &core.ValidationError{Entity: "column", Name: dc.Name, Field: "name", Err: core.ErrInvalidIdentifier}
	}
	typ, ok := core.NormalizeDataType(dc.Type)
	if !ok {
		return nil, &core.ValidationError{Entity: "column", Name: dc.Name, Field: "type", Message: fmt.Sprintf("unsupported type %q; supported: %v", dc.Type, core.SupportedTypes()), Err: core.ErrInvalidType}
	}

	col := core.NewColumn(dc.Name, string(typ), dc.Size)
	if dc.Size != 0 {
		if err := col.SetSize(dc.Size); err != nil {
			return nil, err
		}
	}
	if dc.Scale != nil {
		if err := col.SetScale(*dc.Scale); err != nil {
			return nil, err
		}
	}
	col.SetPrimary(dc.PrimaryKey)
	if dc.AutoIncrement {
		if err := col.SetAutoIncrement(true); err != nil {
			return nil, err
		}
	}
	col.SetUnique(dc.Unique)
	col.SetNullable(dc.Nullable)
	if def, ok := defaultString(dc.Default); ok {
		col.SetDefault(def)
	}
	if dc.AutoUpdate {
		if err := col.AutoUpdate(); err != nil {
			return nil, err
		}
	}
	col.SetComment(dc.Comment)
	return col, nil
}

func defaultString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}

func (c *converter) convertForeignKeys(t *core.Table, dt *Table) error {
	for i := range dt.Columns {
		dc := &dt.Columns[i]
		if dc.References == "" {
			continue
		}
		refTable, refKey, ok := core.ParseReferences(dc.References)
		if !ok {
			return fmt.Errorf("column %q: invalid references %q: expected format \"table.key\"", dc.Name, dc.References)
		}
		target, err := c.findTable(refTable)
		if err != nil {
			return fmt.Errorf("column %q: %w", dc.Name, err)
		}
		key := dc.Key
		if key == "" {
			key = dc.Name
		}
		name := fmt.Sprintf("%s_%s_fk", t.BaseName(), dc.Name)
		if err := t.AddReference(target, key, refKey, name, dc.OnUpdate, dc.OnDelete); err != nil {
			return err
		}
	}

	for i := range dt.ForeignKeys {
		fk := &dt.ForeignKeys[i]
		refTable, refKeys := fk.References, fk.ReferencedColumns
		if len(refKeys) == 0 {
			tbl, key, ok := core.ParseReferences(fk.References)
			if !ok {
				return fmt.Errorf("foreign key %q: references %q needs referenced_columns or the form \"table.key\"", fk.Name, fk.References)
			}
			refTable, refKeys = tbl, []string{key}
		}
		target, err := c.findTable(refTable)
		if err != nil {
			return fmt.Errorf("foreign key %q: %w", fk.Name, err)
		}
		name := fk.Name
		if name == "" {
			name = fmt.Sprintf("%s_%s_fk", t.BaseName(), target.BaseName())
		}
		if err := t.AddMultiReference(target, fk.Columns, refKeys, name, fk.OnUpdate, fk.OnDelete); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) findTable(name string) (*core.Table, error) {
	if t := c.db.FindTable(name); t != nil {
		return t, nil
	}
	return nil, &core.ValidationError{Entity: "database", Name: c.db.Name, Field: name, Message: fmt.Sprintf("referenced table %q is not declared", name), Err: core.ErrNilTable}
}
