package sanitize

import (
	"reflect"
	"strings"
	"testing"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users.jsonl", "users"},
		{"My Data-2024.csv", "my_data_2024"},
		{"orders", "orders"},
		{"dbo;DROP TABLE x--", "dbo_drop_table_x"},
		{"9lives.json", "_9lives"},
		{"select.jsonl", "select_"},
	}
	for _, tc := range tests {
		if got := TableName(tc.in); got != tc.want {
			t.Fatalf("TableName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTableName_UnusableInputFallsBackDeterministically(t *testing.T) {
	a := TableName("!!!.json")
	b := TableName("!!!.json")
	if a != b {
		t.Fatalf("fallback not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "table_") {
		t.Fatalf("fallback=%q, want table_ prefix", a)
	}
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"address__city", "address__city"},
		{"Total Price ($)", "total_price"},
		{"tags_0", "tags_0"},
		{"", "value"},
		{"0day", "_0day"},
		{"from", "from_"},
		{"a.b", "a_b"},
	}
	for _, tc := range tests {
		if got := ColumnName(tc.in); got != tc.want {
			t.Fatalf("ColumnName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColumnName_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := ColumnName(long)
	if len(got) != 63 {
		t.Fatalf("len=%d, want 63", len(got))
	}
}

func TestColumns_DistinctInputsNeverAlias(t *testing.T) {
	// "a.b" and "a_b" normalize identically; the second gets a suffix so two
	// schema keys can never share one column.
	got := Columns([]string{"a.b", "a_b", "a b"})
	want := []string{"a_b", "a_b_2", "a_b_3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns()=%v, want %v", got, want)
	}
}

func TestColumns_PreservesOrder(t *testing.T) {
	got := Columns([]string{"z", "a", "m"})
	if !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
		t.Fatalf("Columns()=%v, order must match input", got)
	}
}
