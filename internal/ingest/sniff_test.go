package ingest

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"users.jsonl", "", "jsonl"},
		{"users.ndjson", "", "jsonl"},
		{"export.json", "", "json"},
		{"report.csv", "", "csv"},
		{"report.tsv", "", "csv"},
		{"page.html", "", "html"},
		{"page.htm", "", "html"},
		{"dump.txt", `{"a":1}`, "jsonl"},
		{"dump.txt", `[{"a":1}]`, "json"},
		{"dump.txt", "<html><table>", "html"},
		{"dump.txt", "  \n\t[1]", "json"},
		{"dump.txt", "a,b,c", "csv"},
		{"dump.txt", "", "csv"},
	}
	for _, tc := range tests {
		if got := detectFormat(tc.name, []byte(tc.head)); got != tc.want {
			t.Fatalf("detectFormat(%q, %q)=%q, want %q", tc.name, tc.head, got, tc.want)
		}
	}
}
