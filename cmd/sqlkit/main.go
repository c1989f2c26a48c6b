// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sqlkit/internal/link"
)

func main() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr, os.Getenv)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command shares: the writers, the environment and
// the connection flags.
type app struct {
	out     io.Writer
	errOut  io.Writer
	getenv  func(string) string
	dsn     string
	envFile string
	timeout time.Duration
	verbose bool
}

func newRootCmd(out, errOut io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{out: out, errOut: errOut, getenv: getenv}

	rootCmd := &cobra.Command{
		Use:           "sqlkit",
		Short:         "MySQL statement builder working from TOML, YAML or DDL table definitions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVar(&a.dsn, "dsn", "", "Database DSN (default from "+link.EnvDSN+" or "+link.EnvUser+" and friends)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file read for connection variables")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "Timeout for database operations")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log every executed statement to stderr")

	rootCmd.AddCommand(
		a.createCmd(),
		a.selectCmd(),
		a.countCmd(),
		a.showCmd(),
		a.checkCmd(),
		a.applyCmd(),
		a.tablesCmd(),
	)
	return rootCmd
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// resolveDSN returns the --dsn flag, or the DSN described by the process
// environment completed with the variables of the dotenv file.
func (a *app) resolveDSN() (string, error) {
	if a.dsn != "" {
		return a.dsn, nil
	}
	fileEnv, err := godotenv.Read(a.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read %s: %w", a.envFile, err)
	}
	getenv := func(k string) string {
		if v := a.getenv(k); v != "" {
			return v
		}
		return fileEnv[k]
	}
	dsn, err := link.DSNFromEnv(getenv)
	if err != nil {
		return "", err
	}
	if dsn == "" {
		return "", fmt.Errorf("no database configured; use --dsn or set %s", link.EnvDSN)
	}
	return dsn, nil
}

func (a *app) connect(ctx context.Context) (*link.Link, error) {
	dsn, err := a.resolveDSN()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return link.Open(ctx, dsn, link.WithLogger(logger))
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// writeResult prints rows as tab separated lines with a header, or the
// affected row count for statements without rows.
func (a *app) writeResult(res *link.Result) {
	if res.Columns == nil {
		a.printf("Rows affected: %d\n", res.RowsAffected)
		return
	}
	a.println(strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		a.println(strings.Join(row, "\t"))
	}
}
