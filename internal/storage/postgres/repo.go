package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"flattab/internal/storage"
)

// Repo implements storage.Repository for Postgres via pgxpool.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) ReplaceTable(ctx context.Context, table string, columns []string) error {
	dropSQL, createSQL, err := buildReplaceSQL(table, columns)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := r.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q, args := buildInsertSQL(table, columns, rows)
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return cmd.RowsAffected(), nil
}

// buildReplaceSQL generates DROP and CREATE DDL. Pure for testability.
func buildReplaceSQL(table string, columns []string) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(table) == "" {
		return "", "", fmt.Errorf("postgres: table name is empty")
	}
	if len(columns) == 0 {
		return "", "", fmt.Errorf("postgres: table %s has no columns", table)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
		b.WriteString(" TEXT")
	}
	b.WriteString(");")

	return "DROP TABLE IF EXISTS " + pgIdent(table) + ";", b.String(), nil
}

// buildInsertSQL constructs a single multi-row INSERT with $n placeholders.
// Pure and deterministic so placeholder numbering is unit-testable without a
// database.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("$%d", p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), args
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
