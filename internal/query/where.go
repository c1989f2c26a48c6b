package query

import (
	"fmt"
	"strconv"
	"strings"

	"sqlkit/internal/core"
)

// Field pairs a column with a value. Column takes precedence; otherwise Ref
// is resolved against the linked table as a key, a SQL name or a position.
type Field struct {
	Column *core.Column
	Ref    string
	Value  any
}

// Value returns a Field resolved by key, SQL name or position.
func Value(ref string, v any) Field { return Field{Ref: ref, Value: v} }

// ValueAt returns a Field resolved by column position.
func ValueAt(i int, v any) Field { return Field{Ref: strconv.Itoa(i), Value: v} }

// ColumnValue returns a Field bound to c.
func ColumnValue(c *core.Column, v any) Field { return Field{Column: c, Value: v} }

// DateValue compares a datetime or timestamp column by date parts; see
// DateCondition for the supported formats.
type DateValue struct {
	Value  string
	Format string
}

// Where is a list of predicates. Comparators pair with Fields and default
// to "="; JoinOperators sit between consecutive predicates and default to
// "and".
type Where struct {
	Fields        []Field
	Comparators   []string
	JoinOperators []string
}

// Eq returns a Where matching every field with "=" joined by "and".
func Eq(fields ...Field) Where { return Where{Fields: fields} }

func (b *Builder) resolve(f Field) (*core.Column, error) {
	if f.Column != nil {
		return f.Column, nil
	}
	if c := b.Column(f.Ref); c != nil {
		return c, nil
	}
	return nil, b.noSuchColumn(f.Ref)
}

// whereClause renders " where ..." or "" for an empty Where.
func (b *Builder) whereClause(w Where) (string, error) {
	n := len(w.Fields)
	if n == 0 {
		return "", nil
	}
	if len(w.Comparators) > n || len(w.JoinOperators) > n-1 {
		return "", &core.ValidationError{
			Entity:  "where",
			Name:    b.tableName(),
			Message: fmt.Sprintf("%d fields, %d comparators, %d join operators", n, len(w.Comparators), len(w.JoinOperators)),
			Err:     core.ErrLengthMismatch,
		}
	}
	comparators := pad(w.Comparators, n, "=")
	joinOps := pad(w.JoinOperators, n-1, "and")

	var sb strings.Builder
	sb.WriteString(" where ")
	for i, f := range w.Fields {
		c, err := b.resolve(f)
		if err != nil {
			return "", err
		}
		pred, err := b.predicate(c, core.NormalizeComparator(comparators[i]), f.Value)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(core.NormalizeJoinOperator(joinOps[i-1]))
			sb.WriteByte(' ')
		}
		sb.WriteString(pred)
	}
	return sb.String(), nil
}

func pad(in []string, n int, fill string) []string {
	out := make([]string, n)
	copy(out, in)
	for i := len(in); i < n; i++ {
		out[i] = fill
	}
	return out
}

func (b *Builder) predicate(c *core.Column, cmp string, v any) (string, error) {
	col := b.colRef(c)
	if v == nil {
		if cmp == "!=" {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	}
	if s, ok := v.(string); ok {
		switch upper := strings.ToUpper(strings.TrimSpace(s)); upper {
		case "IS NULL", "IS NOT NULL":
			return col + " " + upper, nil
		}
	}
	if c.Type().IsBlob() {
		return fmt.Sprintf("%s %s %s", col, cmp, QuoteString(valueString(v))), nil
	}
	if c.Type().IsTemporal() {
		switch d := v.(type) {
		case DateValue:
			cond := DateCondition(d.Value, col, d.Format)
			if cond == "" {
				return "", fmt.Errorf("%w: %q as %q on %s", ErrInvalidDate, d.Value, d.Format, c.Name())
			}
			return "(" + cond + ")", nil
		case *DateValue:
			return b.predicate(c, cmp, *d)
		}
		lit, _ := formatValue(c, v)
		return fmt.Sprintf("date(%s) %s %s", col, cmp, lit), nil
	}
	lit, _ := formatValue(c, v)
	return fmt.Sprintf("%s %s %s", col, cmp, lit), nil
}

// Date condition formats accepted by DateCondition.
const (
	FormatDateTime = "YYYY-MM-DD HH:MM:SS"
	FormatDate     = "YYYY-MM-DD"
	FormatYear     = "YYYY"
	FormatMonth    = "MM"
	FormatDay      = "DD"
	FormatTime     = "HH:MM:SS"
	FormatHour     = "HH"
	FormatSecond   = "SS"
)

type datePart struct {
	fn     string
	lo, hi int
}

var (
	partYear   = datePart{"year", 1901, 9999}
	partMonth  = datePart{"month", 1, 12}
	partDay    = datePart{"day", 1, 31}
	partHour   = datePart{"hour", 0, 23}
	partMinute = datePart{"minute", 0, 59}
	partSecond = datePart{"second", 0, 59}
)

// DateCondition builds a conjunction comparing the parts of column with the
// parts of date, read according to format (case-insensitive, default
// FormatDateTime). "MM" always means the month. It returns "" when the
// format is unknown or any part is missing or out of range.
func DateCondition(date, column, format string) string {
	format = strings.ToUpper(strings.TrimSpace(format))
	if format == "" {
		format = FormatDateTime
	}
	date = strings.TrimSpace(date)

	var (
		values []string
		parts  []datePart
	)
	switch format {
	case FormatDateTime:
		dt := strings.Fields(date)
		if len(dt) != 2 {
			return ""
		}
		values = append(strings.Split(dt[0], "-"), strings.Split(dt[1], ":")...)
		parts = []datePart{partYear, partMonth, partDay, partHour, partMinute, partSecond}
	case FormatDate:
		values = strings.Split(date, "-")
		parts = []datePart{partYear, partMonth, partDay}
	case FormatTime:
		values = strings.Split(date, ":")
		parts = []datePart{partHour, partMinute, partSecond}
	case FormatYear:
		values, parts = []string{date}, []datePart{partYear}
	case FormatMonth:
		values, parts = []string{date}, []datePart{partMonth}
	case FormatDay:
		values, parts = []string{date}, []datePart{partDay}
	case FormatHour:
		values, parts = []string{date}, []datePart{partHour}
	case FormatSecond:
		values, parts = []string{date}, []datePart{partSecond}
	default:
		return ""
	}
	if len(values) != len(parts) {
		return ""
	}

	conds := make([]string, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(values[i])
		if err != nil || n < p.lo || n > p.hi {
			return ""
		}
		conds[i] = fmt.Sprintf("%s(%s) = %d", p.fn, column, n)
	}
	return strings.Join(conds, " and ")
}
