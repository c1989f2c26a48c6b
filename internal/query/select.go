package query

import (
	"fmt"
	"strconv"
	"strings"

	"sqlkit/internal/core"
)

// Aggregate selects a single aggregated column instead of a column list.
type Aggregate string

const (
	AggregateNone Aggregate = ""
	AggregateMax  Aggregate = "max"
	AggregateMin  Aggregate = "min"
)

// Direction is the sort direction of an OrderBy entry. The zero value lets
// the server pick its default.
type Direction string

const (
	Unordered  Direction = ""
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps "A"/"asc" to Ascending and "D"/"desc" to Descending,
// ignoring case. Anything else is Unordered.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "asc":
		return Ascending
	case "d", "desc":
		return Descending
	}
	return Unordered
}

// OrderBy is one entry of an order by clause.
type OrderBy struct {
	Ref       string
	Direction Direction
}

// SelectOptions configures Select. The zero value selects every column of
// every row.
type SelectOptions struct {
	// Columns lists column references to select. Unknown references are
	// skipped; when none resolve every column is selected.
	Columns []string
	Where   Where
	// Limit is applied when positive. Offset is applied when both are positive.
	Limit  int
	Offset int

	// Aggregate selects max or min of Column, renamed to RenameTo when set.
	// Columns is ignored and no limit is applied.
	Aggregate Aggregate
	Column    string
	RenameTo  string

	// GroupBy and OrderBy reference columns; unknown references are skipped.
	GroupBy []string
	OrderBy []OrderBy

	// View, when set, wraps the select in "create view <View> as (...)".
	View string
}

// Select builds a select statement. On error the previous statement is kept.
func (b *Builder) Select(opts SelectOptions) error {
	if err := b.requireTable(); err != nil {
		return err
	}
	if opts.View != "" && !core.ValidIdentifier(opts.View) {
		return &core.ValidationError{Entity: "view", Name: opts.View, Field: "name", Err: core.ErrInvalidIdentifier}
	}

	var sb strings.Builder
	sb.WriteString("select ")
	limit := limitClause(opts.Limit, opts.Offset)

	switch opts.Aggregate {
	case AggregateMax, AggregateMin:
		c := b.Column(opts.Column)
		if c == nil {
			return b.noSuchColumn(opts.Column)
		}
		fmt.Fprintf(&sb, "%s(%s)", opts.Aggregate, b.colRef(c))
		if rename := sanitizeAlias(opts.RenameTo); rename != "" {
			sb.WriteString(" as ")
			sb.WriteString(rename)
		}
		limit = ""
	case AggregateNone:
		sb.WriteString(b.columnList(opts.Columns))
	default:
		return fmt.Errorf("unsupported aggregate %q", opts.Aggregate)
	}

	where, err := b.whereClause(opts.Where)
	if err != nil {
		return err
	}
	sb.WriteString(" from ")
	sb.WriteString(b.from())
	sb.WriteString(where)
	sb.WriteString(b.groupByClause(opts.GroupBy))
	sb.WriteString(b.orderByClause(opts.OrderBy))
	sb.WriteString(limit)

	if opts.View != "" {
		b.set(fmt.Sprintf("create view %s as (%s);", opts.View, sb.String()), TypeCreate)
		return nil
	}
	sb.WriteByte(';')
	b.set(sb.String(), TypeSelect)
	return nil
}

// SelectAll selects every column with an optional limit and offset.
func (b *Builder) SelectAll(limit, offset int) error {
	return b.Select(SelectOptions{Limit: limit, Offset: offset})
}

// SelectMax selects the maximum of the column ref resolves to.
func (b *Builder) SelectMax(ref, renameTo string) error {
	return b.Select(SelectOptions{Aggregate: AggregateMax, Column: ref, RenameTo: renameTo})
}

// SelectMin selects the minimum of the column ref resolves to.
func (b *Builder) SelectMin(ref, renameTo string) error {
	return b.Select(SelectOptions{Aggregate: AggregateMin, Column: ref, RenameTo: renameTo})
}

// CountOptions configures SelectCount.
type CountOptions struct {
	// As names the result column; spaces become underscores. Defaults to "count".
	As    string
	Where Where
}

// SelectCount builds "select count(*) as <alias> from <table> [where ...];".
func (b *Builder) SelectCount(opts CountOptions) error {
	if err := b.requireTable(); err != nil {
		return err
	}
	alias := sanitizeAlias(opts.As)
	if alias == "" {
		alias = "count"
	}
	where, err := b.whereClause(opts.Where)
	if err != nil {
		return err
	}
	b.set(fmt.Sprintf("select count(*) as %s from %s%s;", alias, b.from(), where), TypeSelect)
	return nil
}

func sanitizeAlias(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

func limitClause(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset > 0 {
		return " limit " + strconv.Itoa(limit) + " offset " + strconv.Itoa(offset)
	}
	return " limit " + strconv.Itoa(limit)
}

func (b *Builder) columnList(refs []string) string {
	var names []string
	for _, ref := range refs {
		if c := b.Column(ref); c != nil {
			names = append(names, b.colRef(c))
		}
	}
	if len(names) == 0 {
		return "*"
	}
	return strings.Join(names, ", ")
}

func (b *Builder) groupByClause(refs []string) string {
	var names []string
	for _, ref := range refs {
		if c := b.Column(ref); c != nil {
			names = append(names, b.colRef(c))
		}
	}
	if len(names) == 0 {
		return ""
	}
	return " group by " + strings.Join(names, ", ")
}

func (b *Builder) orderByClause(entries []OrderBy) string {
	var parts []string
	for _, o := range entries {
		c := b.Column(o.Ref)
		if c == nil {
			continue
		}
		part := b.colRef(c)
		if o.Direction == Ascending || o.Direction == Descending {
			part += " " + string(o.Direction)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}
	return " order by " + strings.Join(parts, ", ")
}
