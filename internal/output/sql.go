package output

import (
	"io"
	"strings"

	"sqlkit/internal/migration"
	"sqlkit/internal/query"
)

type sqlFormatter struct{}

// FormatMigration formats a migration in SQL format.
func (sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- sqlkit creation script")
	if m.Database != "" {
		sb.WriteString(" for database '" + m.Database + "'")
	}
	sb.WriteString("\n-- Review before running in production.\n")

	writeCommentSection(&sb, "NOTES", m.Notes)

	if strings.TrimSpace(m.Script) == "" {
		sb.WriteString("\n-- No SQL statements generated.\n")
		return sb.String(), nil
	}

	sb.WriteString("\n-- SQL\n")
	sb.WriteString(m.Script)
	if !strings.HasSuffix(m.Script, "\n") {
		sb.WriteString("\n")
	}

	if rb := m.RollbackStatements(); len(rb) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately)\n")
		writeRollbackAsComments(&sb, rb)
	}
	return sb.String(), nil
}

// FormatQuery formats the last statement of b, ending with a newline.
func (sqlFormatter) FormatQuery(b *query.Builder) (string, error) {
	if b == nil || strings.TrimSpace(b.Query()) == "" {
		return "", nil
	}
	var sb strings.Builder
	if b.IsBlobOperation() {
		sb.WriteString("-- blob operation: run with set names binary\n")
	}
	sb.WriteString(strings.TrimRight(b.Query(), "\n"))
	sb.WriteString("\n")
	return sb.String(), nil
}

// FormatRollbackSQL formats a migration's rollback statements as SQL.
func FormatRollbackSQL(m *migration.Migration) string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("-- sqlkit rollback\n")
	sb.WriteString("-- Run to drop the created tables (review carefully).\n")

	rb := normalizeStatements(m.RollbackStatements())
	if len(rb) == 0 {
		sb.WriteString("\n-- No rollback statements generated.\n")
		return sb.String()
	}

	sb.WriteString("\n-- SQL\n")
	for _, stmt := range rb {
		sb.WriteString(stmt)
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteMigration writes a migration in SQL format to w.
func WriteMigration(m *migration.Migration, w io.Writer) error {
	content, err := sqlFormatter{}.FormatMigration(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

// WriteRollback writes formatted rollback SQL to the given writer.
func WriteRollback(m *migration.Migration, w io.Writer) error {
	_, err := io.WriteString(w, FormatRollbackSQL(m))
	return err
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func writeRollbackAsComments(sb *strings.Builder, rollback []string) {
	for _, stmt := range normalizeStatements(rollback) {
		sb.WriteString("-- ")
		sb.WriteString(stmt)
		sb.WriteString("\n")
	}
}
