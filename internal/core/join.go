package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// JoinType is the kind of SQL join between the two sides of a JoinTable.
type JoinType string

const (
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinInner JoinType = "inner"
	JoinCross JoinType = "cross"
)

// ParseJoinType normalizes s to a JoinType, defaulting to JoinLeft.
func ParseJoinType(s string) JoinType {
	switch jt := JoinType(strings.ToLower(strings.TrimSpace(s))); jt {
	case JoinLeft, JoinRight, JoinInner, JoinCross:
		return jt
	}
	return JoinLeft
}

// JoinSide tells which source table a merged column comes from.
type JoinSide int

const (
	SideLeft JoinSide = iota
	SideRight
)

func (s JoinSide) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// JoinNamer hands out the names T0, T1, ... to join tables created without
// a valid name. The zero value starts at T0.
type JoinNamer struct {
	next int
}

// Next returns the next generated name.
func (n *JoinNamer) Next() string {
	name := "T" + strconv.Itoa(n.next)
	n.next++
	return name
}

// Reset restarts the sequence at T0.
func (n *JoinNamer) Reset() { n.next = 0 }

type joinOrigin struct {
	side JoinSide
	key  string
}

// JoinTable is a table made of the columns of two other tables. Columns whose
// SQL names exist on both sides are copied as left_<name> and right_<name>
// under the keys left-<key> and right-<key>; a numeric suffix is added when
// a source table already uses the prefixed name. The source tables are
// borrowed, never modified. The column set and name of a JoinTable are fixed
// once it is built: its own mutators return ErrReadOnlyTable.
type JoinTable struct {
	*Table

	left      *Table
	right     *Table
	joinType  JoinType
	condition string
	origins   map[string]joinOrigin
	collide   map[string]bool
}

// NewJoinTable merges left and right into a new table named name. When name
// is not a valid identifier the namer provides one; each call with a namer
// advances its sequence.
func NewJoinTable(left, right *Table, name string, namer *JoinNamer) (*JoinTable, error) {
	if left == nil || right == nil {
		return nil, &ValidationError{Entity: "join", Name: name, Err: ErrNilTable}
	}
	generated := ""
	if namer != nil {
		generated = namer.Next()
	}
	if !ValidIdentifier(name) {
		if generated == "" {
			return nil, &ValidationError{Entity: "join", Name: name, Field: "name", Err: ErrInvalidIdentifier}
		}
		name = generated
	}

	jt := &JoinTable{
		Table:    NewTable(name),
		left:     left,
		right:    right,
		joinType: JoinLeft,
		origins:  make(map[string]joinOrigin),
		collide:  make(map[string]bool),
	}
	jt.version = left.version
	jt.charset = left.charset
	jt.engine = left.engine

	rightNames := make(map[string]bool, right.ColumnsCount())
	for _, c := range right.Columns() {
		rightNames[strings.ToLower(c.Name())] = true
	}
	for _, c := range left.Columns() {
		if rightNames[strings.ToLower(c.Name())] {
			jt.collide[strings.ToLower(c.Name())] = true
		}
	}

	kept := keptNames{names: make(map[string]bool), keys: make(map[string]bool)}
	kept.add(jt.collide, left, right)
	kept.add(jt.collide, right, left)

	var errs []error
	errs = append(errs, jt.merge(SideLeft, left, right, kept)...)
	errs = append(errs, jt.merge(SideRight, right, left, kept)...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return jt, nil
}

// keptNames holds the column names and keys copied into a join unchanged.
// Prefixed names must not take them.
type keptNames struct {
	names map[string]bool
	keys  map[string]bool
}

func (k keptNames) add(collide map[string]bool, src, other *Table) {
	for _, key := range src.keys {
		name := strings.ToLower(src.columns[key].name)
		if collide[name] {
			continue
		}
		k.names[name] = true
		if !other.HasColumn(key) {
			k.keys[key] = true
		}
	}
}

func (jt *JoinTable) merge(side JoinSide, src, other *Table, kept keptNames) []error {
	prefix := side.String()
	var errs []error
	for _, key := range src.keys {
		col := src.columns[key].Clone()
		mergedKey := key
		if jt.collide[strings.ToLower(col.name)] {
			col.name = unique(prefix+"_"+col.name, "_", func(n string) bool {
				return kept.names[strings.ToLower(n)] || jt.Table.ColumnByName(n) != nil
			})
			mergedKey = prefix + "-" + key
		} else if other.HasColumn(key) {
			mergedKey = prefix + "-" + key
		}
		if mergedKey != key {
			mergedKey = unique(mergedKey, "-", func(k string) bool {
				return kept.keys[k] || jt.Table.HasColumn(k)
			})
		}
		if err := jt.Table.AddColumn(mergedKey, col); err != nil {
			errs = append(errs, err)
			continue
		}
		jt.origins[mergedKey] = joinOrigin{side: side, key: key}
	}
	return errs
}

// unique returns base, or base followed by sep and the first number from 2
// on that taken rejects.
func unique(base, sep string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		if s := base + sep + strconv.Itoa(i); !taken(s) {
			return s
		}
	}
}

func (jt *JoinTable) Left() *Table  { return jt.left }
func (jt *JoinTable) Right() *Table { return jt.right }

func (jt *JoinTable) JoinType() JoinType { return jt.joinType }

// SetJoinType sets the join type; see ParseJoinType.
func (jt *JoinTable) SetJoinType(t string) { jt.joinType = ParseJoinType(t) }

// Condition returns the join condition text, starting with "on", or "".
func (jt *JoinTable) Condition() string { return jt.condition }

// HasCollisions reports whether any column had to be renamed.
func (jt *JoinTable) HasCollisions() bool { return len(jt.collide) > 0 }

// Origin returns the side and source key of the merged column under key.
func (jt *JoinTable) Origin(key string) (JoinSide, string, bool) {
	o, ok := jt.origins[strings.TrimSpace(key)]
	return o.side, o.key, ok
}

// SourceColumn returns the source table column behind the merged column
// under key, or nil.
func (jt *JoinTable) SourceColumn(key string) *Column {
	side, srcKey, ok := jt.Origin(key)
	if !ok {
		return nil
	}
	if side == SideRight {
		return jt.right.Column(srcKey)
	}
	return jt.left.Column(srcKey)
}

// SourceTable returns the source table of side.
func (jt *JoinTable) SourceTable(side JoinSide) *Table {
	if side == SideRight {
		return jt.right
	}
	return jt.left
}

// ColumnPair names a left table column key and a right table column key.
type ColumnPair struct {
	Left  string
	Right string
}

// SetJoinCondition builds "on l.a = r.b [and|or ...]" from pairs of source
// column keys. Comparators and join operators are padded with "=" and "and"
// and restricted like WHERE clauses. Pairs that cannot be resolved or whose
// types differ are left out of the condition; the returned error lists them.
// The previous condition is replaced.
func (jt *JoinTable) SetJoinCondition(pairs []ColumnPair, comparators, joinOps []string) error {
	var (
		parts []string
		errs  []error
	)
	for i, p := range pairs {
		lc := jt.left.Column(p.Left)
		rc := jt.right.Column(p.Right)
		switch {
		case lc == nil:
			errs = append(errs, &ValidationError{Entity: "join", Name: jt.name, Field: p.Left, Message: fmt.Sprintf("no column with key %q in %s", p.Left, jt.left.Name()), Err: ErrNoSuchColumn})
			continue
		case rc == nil:
			errs = append(errs, &ValidationError{Entity: "join", Name: jt.name, Field: p.Right, Message: fmt.Sprintf("no column with key %q in %s", p.Right, jt.right.Name()), Err: ErrNoSuchColumn})
			continue
		case lc.Type() != rc.Type():
			errs = append(errs, &ValidationError{Entity: "join", Name: jt.name, Field: p.Left, Message: fmt.Sprintf("%s is %s but %s is %s", lc.Name(), lc.Type(), rc.Name(), rc.Type()), Err: ErrTypeMismatch})
			continue
		}
		cmp := "="
		if i < len(comparators) {
			cmp = NormalizeComparator(comparators[i])
		}
		pred := fmt.Sprintf("%s.%s %s %s.%s", jt.left.Name(), lc.Name(), cmp, jt.right.Name(), rc.Name())
		if len(parts) > 0 {
			op := "and"
			if j := i - 1; j >= 0 && j < len(joinOps) {
				op = NormalizeJoinOperator(joinOps[j])
			}
			parts = append(parts, op)
		}
		parts = append(parts, pred)
	}
	jt.condition = ""
	if len(parts) > 0 {
		jt.condition = "on " + strings.Join(parts, " ")
	}
	return errors.Join(errs...)
}

func (jt *JoinTable) readOnly(field string) error {
	return &ValidationError{Entity: "join", Name: jt.name, Field: field, Err: ErrReadOnlyTable}
}

// SetName always fails: a join keeps the name it was built with.
func (jt *JoinTable) SetName(string) error { return jt.readOnly("name") }

// SetSchemaName always fails.
func (jt *JoinTable) SetSchemaName(string) error { return jt.readOnly("schema") }

// AddColumn always fails: the columns of a join come from its sources.
func (jt *JoinTable) AddColumn(key string, _ *Column) error { return jt.readOnly(key) }

// AddDefaultColumns always fails.
func (jt *JoinTable) AddDefaultColumns(DefaultColumns) error { return jt.readOnly("columns") }

// RemoveColumn never removes anything from a join.
func (jt *JoinTable) RemoveColumn(string) bool { return false }

// RemoveColumnAt never removes anything from a join.
func (jt *JoinTable) RemoveColumnAt(int) bool { return false }

// AddForeignKey always fails: joins carry no constraints.
func (jt *JoinTable) AddForeignKey(*ForeignKey) error { return jt.readOnly("foreign key") }

// AddMultiReference always fails.
func (jt *JoinTable) AddMultiReference(*Table, []string, []string, string, string, string) error {
	return jt.readOnly("foreign key")
}

// AddReference always fails.
func (jt *JoinTable) AddReference(*Table, string, string, string, string, string) error {
	return jt.readOnly("foreign key")
}
