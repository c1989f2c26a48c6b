package output

import (
	"fmt"
	"slices"
	"strings"

	"sqlkit/internal/migration"
	"sqlkit/internal/query"
)

type summaryFormatter struct{}

// FormatMigration formats a migration as a compact summary.
// Example output:
//
//	Migration Summary
//	=================
//
//	Tables:              2
//	SQL Statements:      6 (alter 4, create 2)
//	Rollback Statements: 2
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil || len(m.Statements) == 0 {
		return "No migration statements.\n", nil
	}

	var sb strings.Builder

	sb.WriteString("Migration Summary\n")
	sb.WriteString("=================\n\n")

	if m.Database != "" {
		fmt.Fprintf(&sb, "Database:            %s\n", m.Database)
	}
	tables := m.Tables()
	fmt.Fprintf(&sb, "Tables:              %d\n", len(tables))
	fmt.Fprintf(&sb, "SQL Statements:      %d (%s)\n", len(m.Statements), typeBreakdown(m.CountByType()))
	fmt.Fprintf(&sb, "Rollback Statements: %d\n", len(m.Rollback))

	sb.WriteString("\nDetails:\n")
	for _, name := range tables {
		fmt.Fprintf(&sb, "  + %s (%s)\n", name, tableChanges(m, name))
	}

	if len(m.Notes) > 0 {
		fmt.Fprintf(&sb, "\nNotes: %d\n", len(m.Notes))
		for _, n := range m.Notes {
			fmt.Fprintf(&sb, "   - %s\n", n)
		}
	}

	return sb.String(), nil
}

// FormatQuery formats the type and target of the last statement of b.
func (summaryFormatter) FormatQuery(b *query.Builder) (string, error) {
	if b == nil || strings.TrimSpace(b.Query()) == "" {
		return "No query built.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Query Summary\n")
	sb.WriteString("=============\n\n")
	fmt.Fprintf(&sb, "Type:   %s\n", b.Type())
	if t := b.Table(); t != nil {
		fmt.Fprintf(&sb, "Table:  %s\n", t.Name())
	}
	blob := "no"
	if b.IsBlobOperation() {
		blob = "yes"
	}
	fmt.Fprintf(&sb, "Blob:   %s\n", blob)
	fmt.Fprintf(&sb, "Length: %d bytes\n", len(b.Query()))
	return sb.String(), nil
}

func typeBreakdown(counts map[query.Type]int) string {
	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, string(typ))
	}
	slices.Sort(types)
	parts := make([]string, len(types))
	for i, typ := range types {
		parts[i] = fmt.Sprintf("%s %d", typ, counts[query.Type(typ)])
	}
	return strings.Join(parts, ", ")
}

// tableChanges returns a human-readable summary of the statements of a table.
func tableChanges(m *migration.Migration, table string) string {
	var create, pk, fk, other int
	for _, s := range m.Statements {
		if s.Table != table {
			continue
		}
		switch {
		case s.Type == query.TypeCreate:
			create++
		case strings.Contains(s.SQL, " primary key ") || strings.Contains(s.SQL, " auto_increment"):
			pk++
		case strings.Contains(s.SQL, " foreign key "):
			fk++
		default:
			other++
		}
	}

	var parts []string
	if create > 0 {
		parts = append(parts, "new table")
	}
	if pk > 0 {
		parts = append(parts, fmt.Sprintf("%d pk", pk))
	}
	if fk > 0 {
		parts = append(parts, fmt.Sprintf("%d fk", fk))
	}
	if other > 0 {
		parts = append(parts, fmt.Sprintf("%d other", other))
	}
	return strings.Join(parts, ", ")
}
