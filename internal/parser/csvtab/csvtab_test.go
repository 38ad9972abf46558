package csvtab

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"flattab/internal/config"
)

func parse(t *testing.T, opt config.Options, input string) (cols []string, rows [][]any, skippedLines []int) {
	t.Helper()
	p := New(opt, func(string, ...any) {})
	res, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	cols = res.Schema.Columns()
	for _, rec := range res.Records {
		var row []any
		for _, k := range rec.Keys() {
			v, _ := rec.Get(k)
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	for _, s := range res.Skipped {
		skippedLines = append(skippedLines, s.Line)
	}
	return cols, rows, skippedLines
}

func TestParse_HeaderBecomesSchema(t *testing.T) {
	cols, rows, skipped := parse(t, nil, "name,city\nJohn,NYC\nJane,LA\n")
	if !reflect.DeepEqual(cols, []string{"name", "city"}) {
		t.Fatalf("cols=%v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "John" || rows[1][1] != "LA" {
		t.Fatalf("rows=%v", rows)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped=%v, want none", skipped)
	}
}

func TestParse_ShortRowBackfillsNil(t *testing.T) {
	_, rows, _ := parse(t, nil, "a,b,c\n1,2\n")
	if !reflect.DeepEqual(rows[0], []any{"1", "2", nil}) {
		t.Fatalf("row=%v, want nil backfill", rows[0])
	}
}

func TestParse_LongRowSkippedAndReported(t *testing.T) {
	_, rows, skipped := parse(t, nil, "a,b\n1,2\n1,2,3\n9,8\n")
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	if !reflect.DeepEqual(skipped, []int{3}) {
		t.Fatalf("skipped=%v, want [3]", skipped)
	}
}

func TestParse_EmptyCellsBecomeNil(t *testing.T) {
	_, rows, _ := parse(t, nil, "a,b\n,x\n")
	if !reflect.DeepEqual(rows[0], []any{nil, "x"}) {
		t.Fatalf("row=%v", rows[0])
	}
}

func TestParse_CustomDelimiter(t *testing.T) {
	cols, rows, _ := parse(t, config.Options{"comma": ";"}, "a;b\n1;2\n")
	if !reflect.DeepEqual(cols, []string{"a", "b"}) || rows[0][1] != "2" {
		t.Fatalf("cols=%v rows=%v", cols, rows)
	}
}

func TestParse_HeaderlessPositionalColumns(t *testing.T) {
	cols, rows, _ := parse(t, config.Options{"has_header": false}, "1,2\n3,4\n")
	if !reflect.DeepEqual(cols, []string{"column_1", "column_2"}) {
		t.Fatalf("cols=%v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "1" {
		t.Fatalf("rows=%v, want first row kept as data", rows)
	}
}

func TestParse_BOMStrippedFromFirstHeader(t *testing.T) {
	cols, _, _ := parse(t, nil, "\ufeffname,city\nJohn,NYC\n")
	if cols[0] != "name" {
		t.Fatalf("cols=%v, BOM must not leak into column name", cols)
	}
}

func TestParse_MalformedRowSkippedNotFatal(t *testing.T) {
	input := "a,b\n\"bad\"x,2\n1,2\n"
	_, rows, skipped := parse(t, nil, input)
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want the row after the bad one", len(rows))
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped=%v, want the bad quoting reported once", skipped)
	}
}

func TestParse_EmptyInputIsError(t *testing.T) {
	p := New(nil, func(string, ...any) {})
	_, err := p.Parse(context.Background(), strings.NewReader(""))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err=%v, want ErrEmptyInput", err)
	}
}
