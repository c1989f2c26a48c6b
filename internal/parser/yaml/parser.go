// Package yaml reads table definitions from YAML files into core.Database.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"sqlkit/internal/core"
	"sqlkit/internal/parser/document"
)

// Parser reads YAML table definition files.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at path and parses it.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes the first document of r and converts it. Unknown fields are
// rejected.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s document.Schema
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: decode error: %w", err)
	}

	db, err := document.Convert(&s)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return db, nil
}
