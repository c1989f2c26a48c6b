package output

import (
	"encoding/json"
	"slices"

	"sqlkit/internal/migration"
	"sqlkit/internal/query"
)

type jsonFormatter struct{}

type migrationSummary struct {
	Tables             int            `json:"tables"`
	SQLStatements      int            `json:"sqlStatements"`
	RollbackStatements int            `json:"rollbackStatements"`
	Notes              int            `json:"notes"`
	ByType             map[string]int `json:"byType,omitempty"`
}

type migrationPayload struct {
	Format   string           `json:"format"`
	Database string           `json:"database,omitempty"`
	Summary  migrationSummary `json:"summary"`
	Tables   []string         `json:"tables,omitempty"`
	Notes    []string         `json:"notes,omitempty"`
	SQL      []string         `json:"sql,omitempty"`
	Rollback []string         `json:"rollback,omitempty"`
}

type queryPayload struct {
	Format string   `json:"format"`
	Type   string   `json:"type,omitempty"`
	Table  string   `json:"table,omitempty"`
	Blob   bool     `json:"blob"`
	Query  string   `json:"query"`
	Lines  []string `json:"lines,omitempty"`
}

// Payload is the set of documents the JSON formatter writes.
type Payload interface {
	migrationPayload | queryPayload
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	payload := migrationPayload{Format: string(FormatJSON)}
	if m != nil {
		sql := normalizeStatements(m.SQLStatements())
		rollback := normalizeStatements(m.RollbackStatements())

		payload.Database = m.Database
		payload.Tables = m.Tables()
		payload.Notes = m.Notes
		payload.SQL = sql
		payload.Rollback = rollback
		payload.Summary = migrationSummary{
			Tables:             len(payload.Tables),
			SQLStatements:      len(sql),
			RollbackStatements: len(rollback),
			Notes:              len(m.Notes),
			ByType:             countByType(m),
		}
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatQuery(b *query.Builder) (string, error) {
	payload := queryPayload{Format: string(FormatJSON)}
	if b != nil {
		payload.Type = string(b.Type())
		payload.Blob = b.IsBlobOperation()
		payload.Query = b.Query()
		if t := b.Table(); t != nil {
			payload.Table = t.Name()
		}
		if lines := splitCommentLines(b.Query()); len(lines) > 1 {
			payload.Lines = slices.DeleteFunc(lines, func(s string) bool { return s == "" })
		}
	}
	return marshalJSON(payload)
}

func countByType(m *migration.Migration) map[string]int {
	counts := m.CountByType()
	if len(counts) == 0 {
		return nil
	}
	out := make(map[string]int, len(counts))
	for typ, n := range counts {
		out[string(typ)] = n
	}
	return out
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
