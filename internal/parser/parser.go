// Package parser loads table definitions into core.Database, choosing the
// format from the file extension.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sqlkit/internal/core"
	"sqlkit/internal/parser/mysql"
	"sqlkit/internal/parser/toml"
	"sqlkit/internal/parser/yaml"
)

// Parser is implemented by the TOML and YAML parsers.
type Parser interface {
	Parse(r io.Reader) (*core.Database, error)
	ParseFile(path string) (*core.Database, error)
}

// Format is an input format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatSQL  Format = "sql"
)

// FormatOf returns the format matching the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".sql":
		return FormatSQL, nil
	}
	return "", &UnsupportedFormatError{Path: path}
}

// ParseFile parses the file at path in the format of its extension.
func ParseFile(path string) (*core.Database, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTOML:
		return toml.NewParser().ParseFile(path)
	case FormatYAML:
		return yaml.NewParser().ParseFile(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mysql: read file %q: %w", path, err)
		}
		return mysql.NewParser().Parse(string(data))
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
