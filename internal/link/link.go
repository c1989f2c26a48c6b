// Package link runs built statements against a MySQL server through
// database/sql and go-sql-driver/mysql. It is the executor the builders
// hand their statements to; it never builds SQL itself.
package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"sqlkit/internal/query"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "mysql"

// DefaultCharset is the session character set restored after a blob statement.
const DefaultCharset = "utf8mb4"

var (
	ErrEmptyQuery = errors.New("empty query")
	ErrClosed     = errors.New("link is closed")
)

// ExecQuerier wraps the standard Exec and Query methods shared by *sql.DB,
// *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Result is the outcome of one statement. Columns and Rows are set for
// select and show statements; NULL values are rendered as "NULL".
type Result struct {
	Type         query.Type
	Columns      []string
	Rows         [][]string
	RowsAffected int64
	LastInsertID int64
	Duration     time.Duration
}

// Link executes statements on a pool of MySQL connections.
type Link struct {
	db      *sql.DB
	logger  *slog.Logger
	slow    time.Duration
	charset string
}

// Option configures a Link.
type Option func(*Link)

// WithLogger sets the logger receiving statement logs. Default is a logger
// discarding everything.
func WithLogger(l *slog.Logger) Option {
	return func(k *Link) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithSlowThreshold sets the duration above which statements are logged
// as slow. Default is 200ms; zero disables slow statement warnings.
func WithSlowThreshold(d time.Duration) Option {
	return func(k *Link) { k.slow = d }
}

// WithCharset sets the character set restored after blob statements when
// the table does not name one.
func WithCharset(charset string) Option {
	return func(k *Link) {
		if charset != "" {
			k.charset = charset
		}
	}
}

// New wraps an open database.
func New(db *sql.DB, opts ...Option) *Link {
	l := &Link{
		db:      db,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		slow:    200 * time.Millisecond,
		charset: DefaultCharset,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open connects to the server named by dsn and pings it.
func Open(ctx context.Context, dsn string, opts ...Option) (*Link, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}
	return New(db, opts...), nil
}

// DB returns the underlying pool.
func (l *Link) DB() *sql.DB { return l.db }

// Close closes the pool. Closing twice is safe.
func (l *Link) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Run executes the last statement built by b. Select and show statements
// return their rows. Blob statements run on a dedicated connection switched
// to "set names binary" and switched back to the table charset afterwards.
func (l *Link) Run(ctx context.Context, b *query.Builder) (res *Result, rerr error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	text, typ := b.Query(), b.Type()
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if !b.IsBlobOperation() {
		return l.run(ctx, l.db, text, typ)
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, conn.Close()) }()

	if _, err := l.run(ctx, conn, "set names binary", "set"); err != nil {
		return nil, fmt.Errorf("switch to binary: %w", err)
	}
	res, rerr = l.run(ctx, conn, text, typ)

	charset := l.charset
	if t := b.Table(); t != nil && t.Charset() != "" {
		charset = t.Charset()
	}
	if _, err := l.run(ctx, conn, "set names "+charset, "set"); err != nil {
		rerr = errors.Join(rerr, fmt.Errorf("restore charset %s: %w", charset, err))
	}
	return res, rerr
}

// Exec executes stmt and reports the affected rows.
func (l *Link) Exec(ctx context.Context, stmt string) (*Result, error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	if stmt == "" {
		return nil, ErrEmptyQuery
	}
	return l.run(ctx, l.db, stmt, "")
}

// Query executes stmt and returns its rows.
func (l *Link) Query(ctx context.Context, stmt string) (*Result, error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	if stmt == "" {
		return nil, ErrEmptyQuery
	}
	return l.run(ctx, l.db, stmt, query.TypeSelect)
}

// ExecAll executes stmts in order on one connection and stops at the first
// failure.
func (l *Link) ExecAll(ctx context.Context, stmts []string) (rerr error) {
	if l.db == nil {
		return ErrClosed
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, conn.Close()) }()

	for i, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if stmt == "" {
			continue
		}
		if _, err := l.run(ctx, conn, stmt, ""); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (l *Link) run(ctx context.Context, ex ExecQuerier, stmt string, typ query.Type) (*Result, error) {
	start := time.Now()
	res := &Result{Type: typ}
	var err error
	if returnsRows(typ) {
		err = l.query(ctx, ex, stmt, res)
	} else {
		err = l.exec(ctx, ex, stmt, res)
	}
	res.Duration = time.Since(start)
	l.record(ctx, stmt, typ, res.Duration, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func returnsRows(typ query.Type) bool {
	return typ == query.TypeSelect || typ == query.TypeShow
}

func (l *Link) exec(ctx context.Context, ex ExecQuerier, stmt string, res *Result) error {
	r, err := ex.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = n
	}
	if id, err := r.LastInsertId(); err == nil {
		res.LastInsertID = id
	}
	return nil
}

func (l *Link) query(ctx context.Context, ex ExecQuerier, stmt string, res *Result) (rerr error) {
	rows, err := ex.QueryContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	res.Columns = cols
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func (l *Link) record(ctx context.Context, stmt string, typ query.Type, d time.Duration, err error) {
	if err != nil {
		l.logger.DebugContext(ctx, "statement failed", "type", typ, "duration", d, "query", stmt, "error", err)
		return
	}
	l.logger.DebugContext(ctx, "statement executed", "type", typ, "duration", d)
	if l.slow > 0 && d > l.slow {
		l.logger.WarnContext(ctx, "slow statement detected", "type", typ, "duration", d, "query", stmt)
	}
}
