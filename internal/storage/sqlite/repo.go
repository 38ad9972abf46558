package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"flattab/internal/storage"
)

// Repo implements storage.Repository for SQLite. This is the default local
// sink: a DSN is just a file path, and the replace-then-insert flow maps to
// DROP TABLE IF EXISTS + CREATE + batched INSERTs.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) ReplaceTable(ctx context.Context, table string, columns []string) error {
	dropSQL, createSQL, err := buildReplaceSQL(table, columns)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q, args := buildInsertSQL(table, columns, rows)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// buildReplaceSQL generates the DROP and CREATE statements. Pure so DDL shape
// is testable without a database.
func buildReplaceSQL(table string, columns []string) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(table) == "" {
		return "", "", fmt.Errorf("sqlite: table name is empty")
	}
	if len(columns) == 0 {
		return "", "", fmt.Errorf("sqlite: table %s has no columns", table)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
		b.WriteString(" TEXT")
	}
	b.WriteString(");")

	return "DROP TABLE IF EXISTS " + sqlIdent(table) + ";", b.String(), nil
}

// buildInsertSQL constructs a single multi-row INSERT and its args.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, row[j])
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), args
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
