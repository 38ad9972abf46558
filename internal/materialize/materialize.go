// Package materialize turns a frozen schema plus flattened records into a
// rectangular row set: every row has exactly one cell per schema column, in
// schema order, with nil filling structurally absent values.
package materialize

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"flattab/internal/collect"
	"flattab/internal/flatten"
)

// DefaultSampleRows is how many rows the result summary carries by default.
const DefaultSampleRows = 5

// Row builds one positional row for rec against the frozen schema. Missing
// keys backfill as nil.
func Row(schema *collect.Schema, rec *flatten.Record) []any {
	row := make([]any, schema.Len())
	for _, k := range rec.Keys() {
		i, ok := schema.Index(k)
		if !ok {
			// Impossible for records collected under this schema; guarded so
			// a stray record cannot silently widen a row.
			continue
		}
		v, _ := rec.Get(k)
		row[i] = v
	}
	return row
}

// Rows materializes every record. Row count equals record count and every
// row has schema.Len() cells; materialization itself cannot fail on records
// collected under the same schema.
func Rows(schema *collect.Schema, recs []*flatten.Record) [][]any {
	out := make([][]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Row(schema, rec))
	}
	return out
}

// RowHash returns a deterministic hex digest over the row's column names and
// canonicalized values. Rows that differ in any cell produce different
// digests; column order is fixed by the schema so the digest is stable
// across runs.
func RowHash(columns []string, row []any) string {
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(c)
		b.WriteByte('=')
		appendCanonicalValue(&b, row[i])
	}
	sum := xxh3.Hash128([]byte(b.String())).Bytes()
	return hex.EncodeToString(sum[:])
}

// appendCanonicalValue writes a stable textual form of v. The set of types
// matches what flattening and the JSON decoders emit.
func appendCanonicalValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(t)
	case json.Number:
		b.WriteString(t.String())
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		enc, err := json.Marshal(t)
		if err != nil {
			b.WriteString("?")
			return
		}
		b.Write(enc)
	}
}

// Summary is the terminal result of one ingestion run: what a caller (for
// example an upload endpoint) renders back to the user.
type Summary struct {
	TableName string   `json:"table_name"`
	Columns   []string `json:"columns"`
	RowCount  int      `json:"row_count"`

	// SampleRows holds the first few materialized rows keyed by column name.
	SampleRows []map[string]any `json:"sample_rows"`

	// LinesProcessed counts non-blank source lines; RowCount of them became
	// rows and SkippedLines were dropped.
	LinesProcessed int                   `json:"lines_processed"`
	SkippedLines   int                   `json:"skipped_lines"`
	SkippedDetail  []collect.SkippedLine `json:"skipped_detail,omitempty"`

	// KeyCollisions counts flattened-key collisions resolved last-write-wins.
	KeyCollisions int `json:"key_collisions,omitempty"`
}

// SampleRows converts up to n leading rows into column-keyed maps for the
// summary. n <= 0 falls back to DefaultSampleRows.
func SampleRows(columns []string, rows [][]any, n int) []map[string]any {
	if n <= 0 {
		n = DefaultSampleRows
	}
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]map[string]any, 0, n)
	for _, row := range rows[:n] {
		m := make(map[string]any, len(columns))
		for i, c := range columns {
			m[c] = row[i]
		}
		out = append(out, m)
	}
	return out
}
