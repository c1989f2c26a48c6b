package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sqlkit/internal/core"
	"sqlkit/internal/introspect"
	"sqlkit/internal/link"
	"sqlkit/internal/migration"
	"sqlkit/internal/output"
	"sqlkit/internal/parser"
	"sqlkit/internal/query"
	"sqlkit/internal/sqlcheck"
)

func (a *app) createCmd() *cobra.Command {
	var (
		table       string
		comments    bool
		format      string
		check       bool
		outFile     string
		rollbackOut string
	)
	cmd := &cobra.Command{
		Use:   "create <schema-file>",
		Short: "Print the creation script of a schema or of one table",
		Long: `Create builds "create table" statements, primary keys and foreign keys
from a TOML, YAML or SQL schema file. Without --table the whole database
is scripted, tables sorted by their order rank.

Examples:
  sqlkit create schema.toml
  sqlkit create schema.yaml --table users --comments
  sqlkit create schema.sql --format summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parser.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse schema: %w", err)
			}
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}

			if table != "" {
				t, err := findTable(db, table)
				if err != nil {
					return err
				}
				b := query.New(t)
				if err := b.CreateStructure(comments); err != nil {
					return err
				}
				if check {
					if _, err := sqlcheck.New().Check(b.Query()); err != nil {
						return fmt.Errorf("generated sql does not parse: %w", err)
					}
				}
				formatted, err := formatter.FormatQuery(b)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				return a.emit(formatted, outFile, format)
			}

			ctx, cancel := a.context(cmd)
			defer cancel()
			m, err := migration.FromDatabase(ctx, db, migration.Options{Comments: comments})
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatMigration(m)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			if err := a.emit(formatted, outFile, format); err != nil {
				return err
			}
			if rollbackOut != "" {
				if err := os.WriteFile(rollbackOut, []byte(output.FormatRollbackSQL(m)), 0o644); err != nil {
					return fmt.Errorf("failed to write rollback output: %w", err)
				}
				a.info(format, fmt.Sprintf("Rollback saved to %s", rollbackOut))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Only script this table")
	cmd.Flags().BoolVar(&comments, "comments", false, "Describe every table with -- comments")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json or summary")
	cmd.Flags().BoolVar(&check, "check", false, "Parse the generated SQL before printing it")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file")
	cmd.Flags().StringVarP(&rollbackOut, "rollback-output", "r", "", "Output file for the statements dropping the created tables")
	return cmd
}

// whereFlags are the flags shared by select and count.
type whereFlags struct {
	exprs []string
	or    bool
}

func (w *whereFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&w.exprs, "where", "w", nil, "Condition as key=value; also != < <= > >= (repeatable)")
	cmd.Flags().BoolVar(&w.or, "or", false, "Join conditions with or instead of and")
}

func (w *whereFlags) build() (query.Where, error) {
	var where query.Where
	for _, expr := range w.exprs {
		key, op, value, ok := splitCondition(expr)
		if !ok {
			return query.Where{}, fmt.Errorf("invalid condition %q; use key=value", expr)
		}
		where.Fields = append(where.Fields, query.Value(key, value))
		where.Comparators = append(where.Comparators, op)
	}
	if w.or {
		for i := 1; i < len(where.Fields); i++ {
			where.JoinOperators = append(where.JoinOperators, "or")
		}
	}
	return where, nil
}

var conditionOperators = []string{"!=", "<=", ">=", "=", "<", ">"}

// splitCondition splits "key<op>value" at the first comparison operator.
func splitCondition(expr string) (key, op, value string, ok bool) {
	for i := range len(expr) {
		for _, candidate := range conditionOperators {
			if strings.HasPrefix(expr[i:], candidate) {
				key = strings.TrimSpace(expr[:i])
				value = strings.TrimSpace(expr[i+len(candidate):])
				return key, candidate, value, key != ""
			}
		}
	}
	return "", "", "", false
}

func (a *app) selectCmd() *cobra.Command {
	var (
		table   string
		columns []string
		where   whereFlags
		limit   int
		offset  int
		orders  []string
		groups  []string
		view    string
		format  string
		execute bool
	)
	cmd := &cobra.Command{
		Use:   "select <schema-file>",
		Short: "Build a select statement for a table",
		Long: `Select builds a select statement against one table of a schema file.
Columns, conditions and ordering reference columns by key, SQL name or
position.

Examples:
  sqlkit select schema.toml --table users --columns user-id,email --where active=1
  sqlkit select schema.toml --table users --order email:desc --limit 10 --offset 20
  sqlkit select schema.toml --table users --where email=a@b.c --execute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.builder(args[0], table)
			if err != nil {
				return err
			}
			w, err := where.build()
			if err != nil {
				return err
			}
			opts := query.SelectOptions{
				Columns: columns,
				Where:   w,
				Limit:   limit,
				Offset:  offset,
				GroupBy: groups,
				View:    view,
			}
			for _, o := range orders {
				ref, dir, _ := strings.Cut(o, ":")
				opts.OrderBy = append(opts.OrderBy, query.OrderBy{Ref: ref, Direction: query.ParseDirection(dir)})
			}
			if err := b.Select(opts); err != nil {
				return err
			}
			return a.finish(cmd, b, format, execute)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Table to select from")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to select (default all)")
	where.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip, with --limit")
	cmd.Flags().StringArrayVar(&orders, "order", nil, "Order by key[:asc|:desc] (repeatable)")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Group by these columns")
	cmd.Flags().StringVar(&view, "view", "", "Wrap the select in create view NAME")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json or summary")
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "Run the statement and print its rows")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (a *app) countCmd() *cobra.Command {
	var (
		table   string
		as      string
		where   whereFlags
		format  string
		execute bool
	)
	cmd := &cobra.Command{
		Use:   "count <schema-file>",
		Short: "Build a select count(*) statement for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.builder(args[0], table)
			if err != nil {
				return err
			}
			w, err := where.build()
			if err != nil {
				return err
			}
			if err := b.SelectCount(query.CountOptions{As: as, Where: w}); err != nil {
				return err
			}
			return a.finish(cmd, b, format, execute)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Table to count")
	cmd.Flags().StringVar(&as, "as", "", "Name of the result column (default count)")
	where.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json or summary")
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "Run the statement and print the count")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var (
		format  string
		execute bool
	)
	cmd := &cobra.Command{
		Use:   "show <thing>...",
		Short: "Build a show statement, e.g. sqlkit show engines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := query.New(nil)
			b.Show(strings.Join(args, " "))
			return a.finish(cmd, b, format, execute)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json or summary")
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "Run the statement and print its rows")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <file.sql>...",
		Short: "Parse SQL files and list their statements",
		Long: `Check parses SQL files and lists their statements. Statements that may
lose data or lock a table are flagged below the statement line.

Examples:
  sqlkit check schema.sql
  sqlkit check --strict cleanup.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scripts := make([]string, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				scripts[i] = string(data)
			}

			ctx, cancel := a.context(cmd)
			defer cancel()
			checked, err := sqlcheck.CheckAll(ctx, scripts)
			if err != nil {
				return err
			}
			destructive := 0
			for i, stmts := range checked {
				a.printf("%s: %d statements\n", args[i], len(stmts))
				for j, s := range stmts {
					a.printf("  %d. %-6s %s\n", j+1, s.Kind, firstLine(s.Text))
					for _, w := range s.Warnings {
						a.printf("     ! %s: %s\n", w.Level, w.Message)
					}
					if s.Destructive() {
						destructive++
					}
				}
			}
			if strict && destructive > 0 {
				return fmt.Errorf("%d destructive statements found", destructive)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a statement may lose data")
	return cmd
}

func (a *app) applyCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <schema-file>",
		Short: "Create the tables of a schema file on a database",
		Long: `Apply connects to your database and runs the creation script of a schema
file, one statement at a time, stopping at the first failure.

Examples:
  sqlkit apply schema.toml --dsn "user:pass@tcp(localhost:3306)/mydb"
  SQLKIT_DSN="user:pass@tcp(localhost:3306)/mydb" sqlkit apply schema.toml
  sqlkit apply schema.toml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parser.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse schema: %w", err)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			m, err := migration.FromDatabase(ctx, db, migration.Options{})
			if err != nil {
				return err
			}
			for _, note := range m.Notes {
				_, _ = fmt.Fprintf(a.errOut, "note: %s\n", note)
			}
			if dryRun {
				return output.WriteMigration(m, a.out)
			}

			l, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			if err := l.ExecAll(ctx, m.SQLStatements()); err != nil {
				return fmt.Errorf("apply failed: %w", err)
			}
			a.printf("Applied %d statements (%d tables).\n", len(m.Statements), len(m.Tables()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements without connecting")
	return cmd
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema-name]",
		Short: "List the tables and views of a live schema",
		Long: `Tables connects to the database and lists the base tables and views of a
schema. The schema defaults to the database named in the DSN.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			schema := ""
			if len(args) == 1 {
				schema = args[0]
			} else {
				dsn, err := a.resolveDSN()
				if err != nil {
					return err
				}
				cfg, err := link.ParseConfig(dsn)
				if err != nil {
					return err
				}
				schema = cfg.Database
			}
			if schema == "" {
				return fmt.Errorf("no schema given and the DSN names no database")
			}

			l, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			s, err := introspect.New(l).Introspect(ctx, schema)
			if err != nil {
				return err
			}
			a.printf("Schema: %s (MySQL %s)\n", s.Name, s.ServerVersion)
			a.printf("Tables (%d):\n", len(s.Tables))
			for _, t := range s.Tables {
				a.printf("  - %s\n", t)
			}
			a.printf("Views (%d):\n", len(s.Views))
			for _, v := range s.Views {
				a.printf("  - %s\n", v)
			}
			return nil
		},
	}
}

// builder parses the schema file and links a builder to one of its tables.
func (a *app) builder(path, table string) (*query.Builder, error) {
	db, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	t, err := findTable(db, table)
	if err != nil {
		return nil, err
	}
	return query.New(t), nil
}

// finish prints the built statement, or runs it when execute is set.
func (a *app) finish(cmd *cobra.Command, b *query.Builder, format string, execute bool) error {
	if !execute {
		formatter, err := output.NewFormatter(format)
		if err != nil {
			return err
		}
		formatted, err := formatter.FormatQuery(b)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		a.printf("%s", formatted)
		return nil
	}

	ctx, cancel := a.context(cmd)
	defer cancel()
	l, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	res, err := l.Run(ctx, b)
	if err != nil {
		return err
	}
	a.writeResult(res)
	return nil
}

// emit prints formatted or saves it to outFile.
func (a *app) emit(formatted, outFile, format string) error {
	if outFile == "" {
		a.printf("%s", formatted)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(formatted), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.info(format, fmt.Sprintf("Output saved to %s", outFile))
	return nil
}

// info prints a status line; with JSON output it goes to stderr so stdout
// stays a single document.
func (a *app) info(format, msg string) {
	if strings.EqualFold(strings.TrimSpace(format), string(output.FormatJSON)) {
		_, _ = fmt.Fprintln(a.errOut, msg)
		return
	}
	a.println(msg)
}

func findTable(db *core.Database, name string) (*core.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("--table is required")
	}
	if t := db.FindTable(name); t != nil {
		return t, nil
	}
	names := make([]string, 0, len(db.Tables))
	for _, t := range db.Tables {
		names = append(names, t.BaseName())
	}
	return nil, fmt.Errorf("table %q not found; available: %s", name, strings.Join(names, ", "))
}

func firstLine(s string) string {
	line, _, more := strings.Cut(s, "\n")
	if more {
		return line + " ..."
	}
	return line
}
