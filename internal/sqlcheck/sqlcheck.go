// Package sqlcheck parses MySQL scripts with the TiDB parser to verify that
// generated statements are syntactically valid and to split scripts into
// single statements.
package sqlcheck

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"golang.org/x/sync/errgroup"
)

// Kind classifies a parsed statement.
type Kind string

const (
	KindSelect Kind = "select"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindCreate Kind = "create"
	KindAlter  Kind = "alter"
	KindDrop   Kind = "drop"
	KindShow   Kind = "show"
	KindSet    Kind = "set"
	KindOther  Kind = "other"
)

// Statement is one statement of a checked script. Warnings flag statements
// that may lose data or lock a table.
type Statement struct {
	Text     string
	Kind     Kind
	Warnings []Warning
}

// Checker wraps a TiDB parser. A Checker is not safe for concurrent use.
type Checker struct {
	p *parser.Parser
}

func New() *Checker {
	return &Checker{p: parser.New()}
}

// Check parses script and returns its statements in order. Statement text
// is trimmed and carries no trailing semicolon.
func (c *Checker) Check(script string) ([]Statement, error) {
	nodes, _, err := c.p.Parse(script, "", "")
	if err != nil {
		return nil, fmt.Errorf("parse sql: %w", err)
	}
	stmts := make([]Statement, 0, len(nodes))
	for _, n := range nodes {
		stmts = append(stmts, Statement{Text: statementText(n), Kind: kindOf(n), Warnings: warningsOf(n)})
	}
	return stmts, nil
}

// Split returns the statements of script.
func (c *Checker) Split(script string) ([]string, error) {
	stmts, err := c.Check(script)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Text
	}
	return out, nil
}

// Kinds returns the kind of every statement of script.
func (c *Checker) Kinds(script string) ([]Kind, error) {
	stmts, err := c.Check(script)
	if err != nil {
		return nil, err
	}
	out := make([]Kind, len(stmts))
	for i, s := range stmts {
		out[i] = s.Kind
	}
	return out, nil
}

// Valid reports whether script parses.
func Valid(script string) bool {
	_, err := New().Check(script)
	return err == nil
}

// CheckAll checks scripts concurrently, one parser per worker. The result
// is indexed like scripts. The first parse error cancels the remaining work
// and is returned with the index of its script.
func CheckAll(ctx context.Context, scripts []string) ([][]Statement, error) {
	out := make([][]Statement, len(scripts))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for i, script := range scripts {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			stmts, err := New().Check(script)
			if err != nil {
				return fmt.Errorf("script %d: %w", i, err)
			}
			out[i] = stmts
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func statementText(n ast.StmtNode) string {
	return strings.TrimSuffix(strings.TrimSpace(n.Text()), ";")
}

func kindOf(n ast.StmtNode) Kind {
	switch n.(type) {
	case *ast.SelectStmt, *ast.SetOprStmt:
		return KindSelect
	case *ast.InsertStmt:
		return KindInsert
	case *ast.UpdateStmt:
		return KindUpdate
	case *ast.DeleteStmt:
		return KindDelete
	case *ast.CreateTableStmt, *ast.CreateViewStmt, *ast.CreateIndexStmt, *ast.CreateDatabaseStmt:
		return KindCreate
	case *ast.AlterTableStmt:
		return KindAlter
	case *ast.DropTableStmt, *ast.DropDatabaseStmt, *ast.DropIndexStmt, *ast.TruncateTableStmt:
		return KindDrop
	case *ast.ShowStmt:
		return KindShow
	case *ast.SetStmt:
		return KindSet
	}
	return KindOther
}
