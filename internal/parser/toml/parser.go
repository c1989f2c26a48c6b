// Package toml reads table definitions from TOML files into core.Database.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"sqlkit/internal/core"
	"sqlkit/internal/parser/document"
)

// Parser reads TOML table definition files.
type Parser struct{}

// NewParser creates a new TOML parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at path and parses it.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes r and converts it. Keys the document format does not know
// are rejected.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	var s document.Schema
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("toml: unknown keys: %s", strings.Join(keys, ", "))
	}

	db, err := document.Convert(&s)
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return db, nil
}
