// Package core contains the in-memory model of a MySQL schema: databases,
// tables, columns, foreign keys and joined tables. Every mutation validates
// its input and reports failures through ValidationError.
package core

import (
	"cmp"
	"slices"
	"strings"
)

// DataType is a MySQL column type supported by the model.
type DataType string

const (
	TypeInt        DataType = "int"
	TypeVarchar    DataType = "varchar"
	TypeText       DataType = "text"
	TypeMediumText DataType = "mediumtext"
	TypeDatetime   DataType = "datetime"
	TypeTimestamp  DataType = "timestamp"
	TypeDecimal    DataType = "decimal"
	TypeFloat      DataType = "float"
	TypeDouble     DataType = "double"
	TypeTinyBlob   DataType = "tinyblob"
	TypeBlob       DataType = "blob"
	TypeMediumBlob DataType = "mediumblob"
	TypeLongBlob   DataType = "longblob"
	TypeBoolean    DataType = "boolean"
)

// SupportedTypes returns every DataType the model accepts.
func SupportedTypes() []DataType {
	return []DataType{
		TypeInt, TypeVarchar, TypeText, TypeMediumText,
		TypeDatetime, TypeTimestamp,
		TypeDecimal, TypeFloat, TypeDouble,
		TypeTinyBlob, TypeBlob, TypeMediumBlob, TypeLongBlob,
		TypeBoolean,
	}
}

type normalizeDataTypeRule struct {
	dataType DataType
	aliases  []string
}

var normalizeDataTypeRules = []normalizeDataTypeRule{
	{dataType: TypeInt, aliases: []string{"integer"}},
	{dataType: TypeBoolean, aliases: []string{"bool", "tinyint(1)"}},
	{dataType: TypeDecimal, aliases: []string{"dec", "numeric", "fixed"}},
	{dataType: TypeDouble, aliases: []string{"double precision", "real"}},
}

// NormalizeDataType maps a raw type name (case-insensitive) to a DataType.
// The second result is false when the name is not supported.
func NormalizeDataType(raw string) (DataType, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, t := range SupportedTypes() {
		if string(t) == lower {
			return t, true
		}
	}
	for _, rule := range normalizeDataTypeRules {
		if slices.Contains(rule.aliases, lower) {
			return rule.dataType, true
		}
	}
	return "", false
}

// IsText reports whether values of the type are quoted character data.
func (t DataType) IsText() bool {
	return t == TypeVarchar || t == TypeText || t == TypeMediumText
}

// IsTemporal reports whether the type is datetime or timestamp.
func (t DataType) IsTemporal() bool {
	return t == TypeDatetime || t == TypeTimestamp
}

// IsDecimal reports whether the type holds fractional numbers.
func (t DataType) IsDecimal() bool {
	return t == TypeDecimal || t == TypeFloat || t == TypeDouble
}

// IsBlob reports whether the type is one of the blob types.
func (t DataType) IsBlob() bool {
	return t == TypeTinyBlob || t == TypeBlob || t == TypeMediumBlob || t == TypeLongBlob
}

func (t DataType) IsInteger() bool { return t == TypeInt }

// SizeRange returns the accepted size bounds and the default size of a
// sized type. ok is false for types that take no size.
func (t DataType) SizeRange() (lo, hi, def int, ok bool) {
	switch t {
	case TypeInt:
		return 1, 11, 11, true
	case TypeVarchar:
		return 1, 21845, 1, true
	case TypeDecimal:
		return 1, 65, 10, true
	}
	return 0, 0, 0, false
}

// Database groups the tables of one schema.
type Database struct {
	Name          string
	ServerVersion string
	Tables        []*Table
}

// FindTable looks for a table by its unqualified name.
func (db *Database) FindTable(name string) *Table {
	for _, t := range db.Tables {
		if strings.EqualFold(t.BaseName(), name) {
			return t
		}
	}
	return nil
}

// AddTable appends t, rejecting nil tables and duplicate names.
func (db *Database) AddTable(t *Table) error {
	if t == nil {
		return &ValidationError{Entity: "database", Name: db.Name, Err: ErrNilTable}
	}
	if db.FindTable(t.BaseName()) != nil {
		return &ValidationError{Entity: "database", Name: db.Name, Field: t.BaseName(), Err: ErrDuplicateName}
	}
	db.Tables = append(db.Tables, t)
	return nil
}

// OrderedTables returns the tables sorted by their creation order. Tables
// with equal order keep their declaration order.
func (db *Database) OrderedTables() []*Table {
	out := slices.Clone(db.Tables)
	slices.SortStableFunc(out, func(a, b *Table) int {
		return cmp.Compare(a.Order(), b.Order())
	})
	return out
}

// ParseReferences splits a "table.column" reference string into its two parts.
// It returns ("", "", false) if the format is invalid.
func ParseReferences(ref string) (table, column string, ok bool) {
	ref = strings.TrimSpace(ref)
	dot := strings.LastIndex(ref, ".")
	if dot <= 0 || dot >= len(ref)-1 {
		return "", "", false
	}
	return ref[:dot], ref[dot+1:], true
}

var comparators = []string{"=", "!=", "<", "<=", ">", ">="}

// NormalizeComparator returns op trimmed when it is one of = != < <= > >=,
// and "=" otherwise.
func NormalizeComparator(op string) string {
	op = strings.TrimSpace(op)
	if slices.Contains(comparators, op) {
		return op
	}
	return "="
}

// NormalizeJoinOperator returns "or" for a case-insensitive "or" and "and"
// for anything else.
func NormalizeJoinOperator(op string) string {
	if strings.EqualFold(strings.TrimSpace(op), "or") {
		return "or"
	}
	return "and"
}
