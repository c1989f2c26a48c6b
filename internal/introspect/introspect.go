// Package introspect reads the shape of a live schema: the names and counts
// of its tables and views, the available engines and the server version.
// Every query it runs is built by package query and executed through a
// Runner.
package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sqlkit/internal/link"
	"sqlkit/internal/query"
)

// Runner executes built statements. *link.Link implements it.
type Runner interface {
	Run(ctx context.Context, b *query.Builder) (*link.Result, error)
}

// Schema is what Introspect reports about one schema.
type Schema struct {
	Name          string
	ServerVersion string
	Tables        []string
	Views         []string
}

// Introspecter queries a server through a Runner.
type Introspecter struct {
	r Runner
}

func New(r Runner) *Introspecter {
	return &Introspecter{r: r}
}

// Introspect reads the server version and the tables and views of schema.
func (i *Introspecter) Introspect(ctx context.Context, schema string) (*Schema, error) {
	version, err := i.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := i.Tables(ctx, schema)
	if err != nil {
		return nil, err
	}
	views, err := i.Views(ctx, schema)
	if err != nil {
		return nil, err
	}
	return &Schema{Name: schema, ServerVersion: version, Tables: tables, Views: views}, nil
}

// TablesCount returns the number of base tables of schema.
func (i *Introspecter) TablesCount(ctx context.Context, schema string) (int, error) {
	b := query.New(nil)
	b.SchemaTablesCount(schema)
	return i.count(ctx, b)
}

// Tables returns the base table names of schema.
func (i *Introspecter) Tables(ctx context.Context, schema string) ([]string, error) {
	b := query.New(nil)
	b.SchemaTables(schema)
	return i.names(ctx, b)
}

// ViewsCount returns the number of views of schema.
func (i *Introspecter) ViewsCount(ctx context.Context, schema string) (int, error) {
	b := query.New(nil)
	b.SchemaViewsCount(schema)
	return i.count(ctx, b)
}

// Views returns the view names of schema.
func (i *Introspecter) Views(ctx context.Context, schema string) ([]string, error) {
	b := query.New(nil)
	b.SchemaViews(schema)
	return i.names(ctx, b)
}

// Engines returns the storage engines the server supports.
func (i *Introspecter) Engines(ctx context.Context) ([]string, error) {
	b := query.New(nil)
	b.ShowEngines()
	res, err := i.r.Run(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("show engines: %w", err)
	}
	var out []string
	for _, row := range res.Rows {
		if len(row) < 2 || strings.EqualFold(row[1], "NO") || strings.EqualFold(row[1], "DISABLED") {
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}

// ServerVersion returns the "major.minor" version of the server, the form
// accepted by core.Table.SetServerVersion.
func (i *Introspecter) ServerVersion(ctx context.Context) (string, error) {
	b := query.New(nil)
	b.Show("variables like 'version'")
	res, err := i.r.Run(ctx, b)
	if err != nil {
		return "", fmt.Errorf("show version: %w", err)
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) < 2 {
		return "", fmt.Errorf("show version: no rows")
	}
	return MajorMinor(res.Rows[0][1])
}

// MajorMinor reduces a server version such as "8.0.36-0ubuntu0.22.04.1"
// to "8.0".
func MajorMinor(version string) (string, error) {
	v := strings.TrimSpace(version)
	if idx := strings.IndexAny(v, "-+ "); idx > 0 {
		v = v[:idx]
	}
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("unexpected server version %q", version)
	}
	for _, p := range parts[:2] {
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("unexpected server version %q", version)
		}
	}
	return parts[0] + "." + parts[1], nil
}

func (i *Introspecter) count(ctx context.Context, b *query.Builder) (int, error) {
	res, err := i.r.Run(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0, fmt.Errorf("count: no rows")
	}
	n, err := strconv.Atoi(res.Rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (i *Introspecter) names(ctx context.Context, b *query.Builder) ([]string, error) {
	res, err := i.r.Run(ctx, b)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out, nil
}
