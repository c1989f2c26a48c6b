package query

import (
	"fmt"
	"strings"

	"sqlkit/internal/core"
)

// Insert builds "insert into <table> (<cols>) values (<vals>);". Values are
// formatted by column type; blob values are read from the file they name.
func (b *Builder) Insert(values []Field) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	if len(values) == 0 {
		return ErrNoValues
	}
	var blob bool
	cols := make([]string, 0, len(values))
	vals := make([]string, 0, len(values))
	for _, f := range values {
		c, err := b.resolve(f)
		if err != nil {
			return err
		}
		lit, isBlob := formatValue(c, f.Value)
		blob = blob || isBlob
		cols = append(cols, c.Name())
		vals = append(vals, lit)
	}
	b.set(fmt.Sprintf("insert into %s (%s) values (%s);", b.table.Name(), strings.Join(cols, ", "), strings.Join(vals, ", ")), TypeInsert)
	b.blob = blob
	return nil
}

// Update builds "update <table> set <col> = <val>, ... [where ...];".
func (b *Builder) Update(values []Field, where Where) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	if len(values) == 0 {
		return ErrNoValues
	}
	sets, blob, err := b.assignments(values)
	if err != nil {
		return err
	}
	cond, err := b.whereClause(where)
	if err != nil {
		return err
	}
	b.set(fmt.Sprintf("update %s set %s%s;", b.table.Name(), sets, cond), TypeUpdate)
	b.blob = blob
	return nil
}

func (b *Builder) assignments(values []Field) (string, bool, error) {
	var blob bool
	sets := make([]string, 0, len(values))
	for _, f := range values {
		c, err := b.resolve(f)
		if err != nil {
			return "", false, err
		}
		lit, isBlob := formatValue(c, f.Value)
		blob = blob || isBlob
		sets = append(sets, c.Name()+" = "+lit)
	}
	return strings.Join(sets, ", "), blob, nil
}

// Delete builds "delete from <table> [where ...];".
func (b *Builder) Delete(where Where) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	cond, err := b.whereClause(where)
	if err != nil {
		return err
	}
	b.set(fmt.Sprintf("delete from %s%s;", b.table.Name(), cond), TypeDelete)
	return nil
}

// BlobFile names a column (by reference or directly) and the file whose
// content goes into it.
type BlobFile struct {
	Column *core.Column
	Ref    string
	Path   string
}

// UpdateBlobFromFile builds an update storing the content of each file in
// its column for the row whose idColumn equals id. idColumn is a column
// reference or, when none matches, a plain column name that must be a valid
// identifier. Files are read without checking for them first; a read failure
// is returned and the previous statement is kept.
func (b *Builder) UpdateBlobFromFile(files []BlobFile, id any, idColumn string) error {
	if err := b.requireWritable(); err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNoValues
	}
	idColumn = strings.TrimSpace(idColumn)
	idCol := b.Column(idColumn)
	if idCol == nil && !core.ValidIdentifier(idColumn) {
		return &core.ValidationError{
			Entity:  "update",
			Name:    b.tableName(),
			Field:   "id column",
			Message: fmt.Sprintf("invalid id column %q", idColumn),
			Err:     core.ErrInvalidIdentifier,
		}
	}
	sets := make([]string, 0, len(files))
	for _, f := range files {
		c, err := b.resolve(Field{Column: f.Column, Ref: f.Ref})
		if err != nil {
			return err
		}
		data, err := readBlob(f.Path)
		if err != nil {
			return fmt.Errorf("read blob for %s: %w", c.Name(), err)
		}
		sets = append(sets, c.Name()+" = '"+addSlashes(data)+"'")
	}
	idLit := valueString(id)
	if idCol != nil {
		idColumn = idCol.Name()
		idLit, _ = formatValue(idCol, id)
	} else if !isNumeric(idLit) {
		idLit = QuoteString(idLit)
	}
	b.set(fmt.Sprintf("update %s set %s where %s = %s;", b.table.Name(), strings.Join(sets, ", "), idColumn, idLit), TypeUpdate)
	b.blob = true
	return nil
}
