package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultTableName     = "table"
	DefaultEngine        = "InnoDB"
	DefaultCharset       = "utf8mb4"
	DefaultServerVersion = "5.5"

	// LegacyCollation is used for servers up to 5.5.
	LegacyCollation = "utf8mb4_unicode_ci"
	// Collation520 is used for every newer server.
	Collation520 = "utf8mb4_unicode_520_ci"
)

// Table is an ordered, keyed collection of columns plus its foreign keys.
// Column keys are chosen by the caller and are independent of the SQL
// names of the columns.
type Table struct {
	name    string
	schema  string
	engine  string
	charset string
	comment string
	version string
	order   int

	keys        []string
	columns     map[string]*Column
	foreignKeys []*ForeignKey
}

// NewTable creates an empty table. An invalid name falls back to
// DefaultTableName.
func NewTable(name string) *Table {
	t := &Table{
		name:    DefaultTableName,
		engine:  DefaultEngine,
		charset: DefaultCharset,
		version: DefaultServerVersion,
		columns: make(map[string]*Column),
	}
	_ = t.SetName(name)
	return t
}

// Name returns the table name, qualified with the schema name when one is set.
func (t *Table) Name() string {
	if t.schema != "" {
		return t.schema + "." + t.name
	}
	return t.name
}

// BaseName returns the table name without the schema.
func (t *Table) BaseName() string { return t.name }

// SetName renames the table, keeping the previous name on failure.
func (t *Table) SetName(name string) error {
	name = strings.TrimSpace(name)
	if !ValidIdentifier(name) {
		return &ValidationError{Entity: "table", Name: t.name, Field: "name", Message: fmt.Sprintf("invalid name %q", name), Err: ErrInvalidIdentifier}
	}
	t.name = name
	return nil
}

func (t *Table) SchemaName() string { return t.schema }

// SetSchemaName sets the schema the table belongs to. An empty name removes it.
func (t *Table) SetSchemaName(schema string) error {
	schema = strings.TrimSpace(schema)
	if schema != "" && !ValidIdentifier(schema) {
		return &ValidationError{Entity: "table", Name: t.name, Field: "schema", Message: fmt.Sprintf("invalid schema name %q", schema), Err: ErrInvalidIdentifier}
	}
	t.schema = schema
	return nil
}

func (t *Table) Engine() string { return t.engine }

// SetEngine sets the storage engine. Empty values are ignored.
func (t *Table) SetEngine(engine string) {
	if engine = strings.TrimSpace(engine); engine != "" {
		t.engine = engine
	}
}

func (t *Table) Charset() string { return t.charset }

// SetCharset sets the default character set. Empty values are ignored.
func (t *Table) SetCharset(charset string) {
	if charset = strings.TrimSpace(charset); charset != "" {
		t.charset = charset
	}
}

func (t *Table) Comment() string           { return t.comment }
func (t *Table) SetComment(comment string) { t.comment = comment }

// Order is the advisory creation rank of the table among its siblings.
func (t *Table) Order() int { return t.order }

func (t *Table) SetOrder(order int) error {
	if order < 0 {
		return &ValidationError{Entity: "table", Name: t.name, Field: "order", Err: ErrInvalidOrder}
	}
	t.order = order
	return nil
}

func (t *Table) ServerVersion() string { return t.version }

// SetServerVersion sets the MySQL server version the table targets, given
// as "major.minor" with an optional patch part.
func (t *Table) SetServerVersion(version string) error {
	version = strings.TrimSpace(version)
	if _, _, ok := parseVersion(version); !ok {
		return &ValidationError{Entity: "table", Name: t.name, Field: "version", Message: fmt.Sprintf("invalid server version %q", version), Err: ErrInvalidVersion}
	}
	t.version = version
	return nil
}

// Collation returns the collation matching the server version.
func (t *Table) Collation() string {
	major, minor, _ := parseVersion(t.version)
	if major <= 5 && minor <= 5 {
		return LegacyCollation
	}
	return Collation520
}

func parseVersion(v string) (major, minor int, ok bool) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		nums = append(nums, n)
	}
	return nums[0], nums[1], true
}

// AddColumn attaches c under key. The key is trimmed. It fails when the key
// is invalid or taken, when c is nil or belongs to another table, or when
// a column with the same SQL name exists. On success c.Index() is the
// previous column count.
func (t *Table) AddColumn(key string, c *Column) error {
	key = strings.TrimSpace(key)
	if !ValidKey(key) {
		return &ValidationError{Entity: "table", Name: t.name, Field: "key", Message: fmt.Sprintf("invalid column key %q", key), Err: ErrInvalidKey}
	}
	if c == nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: key, Err: ErrNilColumn}
	}
	if c.owner != nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: key, Err: ErrColumnOwned}
	}
	if _, ok := t.columns[key]; ok {
		return &ValidationError{Entity: "table", Name: t.name, Field: key, Message: fmt.Sprintf("duplicate column key %q", key), Err: ErrDuplicateKey}
	}
	if t.ColumnByName(c.Name()) != nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: key, Message: fmt.Sprintf("duplicate column name %q", c.Name()), Err: ErrDuplicateName}
	}
	c.index = len(t.keys)
	c.owner = t
	t.keys = append(t.keys, key)
	t.columns[key] = c
	return nil
}

// RemoveColumn removes the column with the given key or, when no key
// matches, the column at the position the string parses to.
func (t *Table) RemoveColumn(keyOrIndex string) bool {
	key := strings.TrimSpace(keyOrIndex)
	if c, ok := t.columns[key]; ok {
		return t.RemoveColumnAt(c.index)
	}
	i, err := strconv.Atoi(key)
	if err != nil {
		return false
	}
	return t.RemoveColumnAt(i)
}

// RemoveColumnAt removes the column at position i and renumbers the
// columns after it.
func (t *Table) RemoveColumnAt(i int) bool {
	if i < 0 || i >= len(t.keys) {
		return false
	}
	key := t.keys[i]
	c := t.columns[key]
	c.owner, c.index = nil, -1
	delete(t.columns, key)
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	for j := i; j < len(t.keys); j++ {
		t.columns[t.keys[j]].index = j
	}
	return true
}

// HasColumn reports whether a column is registered under key.
func (t *Table) HasColumn(key string) bool {
	_, ok := t.columns[strings.TrimSpace(key)]
	return ok
}

// Column returns the column registered under key, or nil.
func (t *Table) Column(key string) *Column { return t.columns[strings.TrimSpace(key)] }

// ColumnAt returns the column at position i, or nil.
func (t *Table) ColumnAt(i int) *Column {
	if i < 0 || i >= len(t.keys) {
		return nil
	}
	return t.columns[t.keys[i]]
}

// ColumnByName returns the column with the given SQL name, ignoring case, or nil.
func (t *Table) ColumnByName(name string) *Column {
	for _, k := range t.keys {
		if c := t.columns[k]; strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// ColumnIndex returns the position of the column registered under key, or -1.
func (t *Table) ColumnIndex(key string) int {
	if c := t.Column(key); c != nil {
		return c.index
	}
	return -1
}

// KeyOf returns the key c is registered under, or "" when c is not a
// column of t.
func (t *Table) KeyOf(c *Column) string {
	if c == nil || c.owner != t {
		return ""
	}
	return t.keys[c.index]
}

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Column {
	cols := make([]*Column, len(t.keys))
	for i, k := range t.keys {
		cols[i] = t.columns[k]
	}
	return cols
}

// ColumnKeys returns the column keys in insertion order.
func (t *Table) ColumnKeys() []string { return append([]string(nil), t.keys...) }

// ColumnNames returns the SQL names of the columns in insertion order.
func (t *Table) ColumnNames() []string { return columnNames(t.Columns()) }

func (t *Table) ColumnsCount() int { return len(t.keys) }

// DefaultColumn overrides the key and SQL name of one default column. Empty
// or invalid values keep the built-in ones.
type DefaultColumn struct {
	Key  string `toml:"key-name" yaml:"key-name"`
	Name string `toml:"db-name" yaml:"db-name"`
}

// DefaultColumns selects which standard columns AddDefaultColumns injects.
// A nil field skips that column.
type DefaultColumns struct {
	ID          *DefaultColumn `toml:"id" yaml:"id"`
	CreatedOn   *DefaultColumn `toml:"created-on" yaml:"created-on"`
	LastUpdated *DefaultColumn `toml:"last-updated" yaml:"last-updated"`
}

// AllDefaultColumns selects the three standard columns with built-in names.
func AllDefaultColumns() DefaultColumns {
	return DefaultColumns{ID: &DefaultColumn{}, CreatedOn: &DefaultColumn{}, LastUpdated: &DefaultColumn{}}
}

// AddDefaultColumns injects the selected standard columns: an auto increment
// primary key "id", a "created_on" timestamp defaulting to the current time
// and a "last_updated" datetime refreshed on every update. On failure none
// of them is kept.
func (t *Table) AddDefaultColumns(opts DefaultColumns) error {
	type spec struct {
		override  *DefaultColumn
		key, name string
		build     func(name string) *Column
	}
	specs := []spec{
		{opts.ID, "id", "id", func(name string) *Column {
			c := NewColumn(name, string(TypeInt), 11)
			c.SetPrimary(true)
			_ = c.SetAutoIncrement(true)
			return c
		}},
		{opts.CreatedOn, "created-on", "created_on", func(name string) *Column {
			c := NewColumn(name, string(TypeTimestamp), 0)
			c.SetDefault("")
			return c
		}},
		{opts.LastUpdated, "last-updated", "last_updated", func(name string) *Column {
			c := NewColumn(name, string(TypeDatetime), 0)
			_ = c.AutoUpdate()
			return c
		}},
	}
	before := len(t.keys)
	for _, s := range specs {
		if s.override == nil {
			continue
		}
		key, name := s.key, s.name
		if ValidKey(s.override.Key) {
			key = strings.TrimSpace(s.override.Key)
		}
		if ValidIdentifier(s.override.Name) {
			name = strings.TrimSpace(s.override.Name)
		}
		if err := t.AddColumn(key, s.build(name)); err != nil {
			for len(t.keys) > before {
				t.RemoveColumnAt(len(t.keys) - 1)
			}
			return err
		}
	}
	return nil
}

// ForeignKeys returns the attached foreign keys in insertion order.
func (t *Table) ForeignKeys() []*ForeignKey { return t.foreignKeys }

// ForeignKey returns the attached key with the given name, or nil.
func (t *Table) ForeignKey(name string) *ForeignKey {
	for _, fk := range t.foreignKeys {
		if fk.Name() == name {
			return fk
		}
	}
	return nil
}

// AddForeignKey attaches fk with t as its source table. Every source column
// must belong to t and every referenced column to the referenced table.
func (t *Table) AddForeignKey(fk *ForeignKey) error {
	if fk == nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: "foreign key", Err: ErrNilForeignKey}
	}
	if fk.referenced == nil {
		return &ValidationError{Entity: "foreign key", Name: fk.name, Field: "referenced", Err: ErrNilTable}
	}
	if t.ForeignKey(fk.name) != nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: "foreign key", Message: fmt.Sprintf("duplicate foreign key %q", fk.name), Err: ErrDuplicateName}
	}
	if len(fk.sourceCols) == 0 || len(fk.sourceCols) != len(fk.referencedCols) {
		return &ValidationError{Entity: "foreign key", Name: fk.name, Message: fmt.Sprintf("%d source and %d referenced columns", len(fk.sourceCols), len(fk.referencedCols)), Err: ErrLengthMismatch}
	}
	for _, c := range fk.sourceCols {
		if c.owner != t {
			return &ValidationError{Entity: "foreign key", Name: fk.name, Field: c.Name(), Message: fmt.Sprintf("column %q is not a column of %s", c.Name(), t.Name()), Err: ErrNoSuchColumn}
		}
	}
	for _, c := range fk.referencedCols {
		if c.owner != fk.referenced {
			return &ValidationError{Entity: "foreign key", Name: fk.name, Field: c.Name(), Message: fmt.Sprintf("column %q is not a column of %s", c.Name(), fk.referenced.Name()), Err: ErrNoSuchColumn}
		}
	}
	fk.source = t
	t.foreignKeys = append(t.foreignKeys, fk)
	return nil
}

// AddMultiReference creates and attaches a foreign key named name from the
// columns of t under sourceKeys to the columns of referenced under
// referencedKeys.
func (t *Table) AddMultiReference(referenced *Table, sourceKeys, referencedKeys []string, name, onUpdate, onDelete string) error {
	if referenced == nil {
		return &ValidationError{Entity: "table", Name: t.name, Field: "reference", Err: ErrNilTable}
	}
	if !ValidIdentifier(name) {
		return &ValidationError{Entity: "table", Name: t.name, Field: "reference", Message: fmt.Sprintf("invalid key name %q", name), Err: ErrInvalidIdentifier}
	}
	if len(sourceKeys) == 0 || len(sourceKeys) != len(referencedKeys) {
		return &ValidationError{Entity: "table", Name: t.name, Field: name, Err: ErrLengthMismatch}
	}
	fk := NewForeignKey(name, referenced)
	fk.SetOnUpdate(onUpdate)
	fk.SetOnDelete(onDelete)
	for i := range sourceKeys {
		src := t.Column(sourceKeys[i])
		if src == nil {
			return &ValidationError{Entity: "table", Name: t.name, Field: name, Message: fmt.Sprintf("no column with key %q", sourceKeys[i]), Err: ErrNoSuchColumn}
		}
		ref := referenced.Column(referencedKeys[i])
		if ref == nil {
			return &ValidationError{Entity: "table", Name: referenced.name, Field: name, Message: fmt.Sprintf("no column with key %q", referencedKeys[i]), Err: ErrNoSuchColumn}
		}
		_ = fk.AddSourceColumn(src)
		_ = fk.AddReferencedColumn(ref)
	}
	return t.AddForeignKey(fk)
}

// AddReference is AddMultiReference for a single column pair.
func (t *Table) AddReference(referenced *Table, sourceKey, referencedKey, name, onUpdate, onDelete string) error {
	return t.AddMultiReference(referenced, []string{sourceKey}, []string{referencedKey}, name, onUpdate, onDelete)
}

// PrimaryKeyName returns the name of the primary key constraint.
func (t *Table) PrimaryKeyName() string { return t.name + "_pk" }

// PrimaryKeyColumns returns the primary columns in column order.
func (t *Table) PrimaryKeyColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns() {
		if c.IsPrimary() {
			cols = append(cols, c)
		}
	}
	return cols
}

func (t *Table) PrimaryKeyColumnsCount() int { return len(t.PrimaryKeyColumns()) }

// CreatePrimaryKeyStatement returns the alter statement adding a composite
// primary key, or "" when fewer than two columns are primary.
func (t *Table) CreatePrimaryKeyStatement() string {
	cols := t.PrimaryKeyColumns()
	if len(cols) < 2 {
		return ""
	}
	return fmt.Sprintf("alter table %s add constraint %s primary key (%s)",
		t.Name(), t.PrimaryKeyName(), strings.Join(columnNames(cols), ","))
}

// EntityMethods lists accessor names for an entity class mapped to the table.
type EntityMethods struct {
	Setters []string
	Getters []string
}

// EntityMethods derives setter and getter names from the column keys:
// "user-id" gives setUserId and getUserId.
func (t *Table) EntityMethods() EntityMethods {
	var m EntityMethods
	for _, k := range t.keys {
		suffix := methodSuffix(k)
		m.Setters = append(m.Setters, "set"+suffix)
		m.Getters = append(m.Getters, "get"+suffix)
	}
	return m
}

// SettersMap maps each setter name to the SQL name of its column.
func (t *Table) SettersMap() map[string]string {
	m := make(map[string]string, len(t.keys))
	for _, k := range t.keys {
		m["set"+methodSuffix(k)] = t.columns[k].Name()
	}
	return m
}

func methodSuffix(key string) string {
	caser := cases.Title(language.English, cases.NoLower)
	var sb strings.Builder
	for _, part := range strings.Split(key, "-") {
		sb.WriteString(caser.String(part))
	}
	return sb.String()
}

// String returns a short summary of the table.
func (t *Table) String() string {
	return fmt.Sprintf("Table: %s (%d cols, %d foreign keys)", t.Name(), len(t.keys), len(t.foreignKeys))
}
