package sqlite

import (
	"strings"
	"testing"
)

func TestBuildReplaceSQL(t *testing.T) {
	dropSQL, createSQL, err := buildReplaceSQL("users", []string{"name", "address__city"})
	if err != nil {
		t.Fatalf("buildReplaceSQL: %v", err)
	}
	if dropSQL != `DROP TABLE IF EXISTS "users";` {
		t.Fatalf("dropSQL=%q", dropSQL)
	}
	if createSQL != `CREATE TABLE "users" ("name" TEXT, "address__city" TEXT);` {
		t.Fatalf("createSQL=%q", createSQL)
	}
}

func TestBuildReplaceSQL_NoColumns(t *testing.T) {
	if _, _, err := buildReplaceSQL("users", nil); err == nil {
		t.Fatalf("expected error for zero columns")
	}
}

func TestBuildReplaceSQL_EmptyTable(t *testing.T) {
	if _, _, err := buildReplaceSQL("  ", []string{"a"}); err == nil {
		t.Fatalf("expected error for empty table name")
	}
}

func TestBuildInsertSQL(t *testing.T) {
	q, args := buildInsertSQL("users", []string{"a", "b"}, [][]any{
		{"1", nil},
		{"3", "4"},
	})
	want := `INSERT INTO "users" ("a", "b") VALUES (?, ?), (?, ?);`
	if q != want {
		t.Fatalf("q=%q, want %q", q, want)
	}
	if len(args) != 4 || args[0] != "1" || args[1] != nil || args[3] != "4" {
		t.Fatalf("args=%v", args)
	}
}

func TestSqlIdent_EscapesQuotes(t *testing.T) {
	if got := sqlIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("got %q", got)
	}
	if !strings.HasPrefix(sqlIdent("x"), `"`) {
		t.Fatalf("identifiers must be quoted")
	}
}
