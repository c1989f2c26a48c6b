package query

import (
	"fmt"
	"strings"

	"sqlkit/internal/core"
)

// JoinOptions configures Join.
type JoinOptions struct {
	// Name of the join; when empty or invalid a generated name T0, T1, ...
	// is used.
	Name string
	// Type is left, right, inner or cross. Defaults to left.
	Type          string
	On            []core.ColumnPair
	Comparators   []string
	JoinOperators []string
}

// Join returns a builder over the join of the linked table with right. Its
// selects read from a derived table:
//
//	select * from (select * from a left join b on a.x = b.y) as T0;
//
// When some On pairs cannot be used the builder is still returned together
// with an error describing the skipped pairs. A join left without any
// condition is rendered as a cross join.
func (b *Builder) Join(right *core.Table, opts JoinOptions) (*Builder, error) {
	if err := b.requireTable(); err != nil {
		return nil, err
	}
	if b.join != nil {
		return nil, ErrNestedJoin
	}
	jt, err := core.NewJoinTable(b.table, right, opts.Name, b.namer)
	if err != nil {
		return nil, err
	}
	jt.SetJoinType(opts.Type)
	jb := &Builder{table: jt.Table, join: jt, namer: b.namer}
	if err := jt.SetJoinCondition(opts.On, opts.Comparators, opts.JoinOperators); err != nil {
		return jb, fmt.Errorf("join %s: %w", jt.Name(), err)
	}
	return jb, nil
}

// from returns the from clause source: the table name, or the derived join
// table for join builders.
func (b *Builder) from() string {
	if b.join == nil {
		return b.table.Name()
	}
	return "(" + joinSelect(b.join) + ") as " + b.join.Name()
}

// joinSelect is the select over both source tables. Renamed columns are
// listed explicitly with their aliases.
func joinSelect(jt *core.JoinTable) string {
	var sb strings.Builder
	sb.WriteString("select ")
	if jt.HasCollisions() {
		keys := jt.ColumnKeys()
		cols := make([]string, 0, len(keys))
		for _, key := range keys {
			side, _, _ := jt.Origin(key)
			src := jt.SourceColumn(key)
			merged := jt.Column(key)
			ref := jt.SourceTable(side).Name() + "." + src.Name()
			if merged.Name() != src.Name() {
				ref += " as " + merged.Name()
			}
			cols = append(cols, ref)
		}
		sb.WriteString(strings.Join(cols, ", "))
	} else {
		sb.WriteByte('*')
	}
	cond := jt.Condition()
	joinType := jt.JoinType()
	if cond == "" {
		// left and right joins need an on clause.
		joinType = core.JoinCross
	}
	fmt.Fprintf(&sb, " from %s %s join %s", jt.Left().Name(), joinType, jt.Right().Name())
	if cond != "" {
		sb.WriteByte(' ')
		sb.WriteString(cond)
	}
	return sb.String()
}
