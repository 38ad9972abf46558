// Package csvtab ingests delimited text in a single pass. CSV is already
// flat, so each row becomes a record keyed by header name with no flattening
// step; headers pass through identifier sanitization at the sink boundary
// like every other schema key.
package csvtab

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"flattab/internal/collect"
	"flattab/internal/config"
	"flattab/internal/flatten"
)

// ErrEmptyInput reports a source with no header row.
var ErrEmptyInput = errors.New("csvtab: empty input, no header row")

// Parser converts delimited text into records.
//
// Options (all optional):
//   - comma: field delimiter, first rune used (default ",")
//   - has_header: first row is the header (default true)
//   - trim_space: trim cell whitespace (default true)
//   - lazy_quotes: tolerate bare quotes inside fields (default false)
type Parser struct {
	opt  config.Options
	logf func(format string, a ...any)
}

// New returns a Parser for the given option bag.
func New(opt config.Options, logf func(format string, a ...any)) *Parser {
	if logf == nil {
		logf = log.Printf
	}
	return &Parser{opt: opt, logf: logf}
}

// Parse reads the whole source. Malformed rows are skipped and reported, not
// fatal. Rows shorter than the header backfill nil; longer rows drop the
// overflow cells and are reported.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (collect.Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = p.opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = p.opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1

	trim := p.opt.Bool("trim_space", true)
	hasHeader := p.opt.Bool("has_header", true)

	line := 0
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	header, err := readRec()
	if err == io.EOF {
		return collect.Result{}, ErrEmptyInput
	}
	if err != nil {
		return collect.Result{}, fmt.Errorf("csvtab: read header: %w", err)
	}

	var res collect.Result
	builder := collect.NewSchemaBuilder()

	columns := make([]string, len(header))
	if hasHeader {
		for i, h := range header {
			h = strings.TrimSpace(h)
			if i == 0 {
				h = strings.TrimPrefix(h, "\uFEFF")
			}
			if h == "" {
				h = fmt.Sprintf("column_%d", i+1)
			}
			columns[i] = h
		}
	} else {
		// Headerless sources get positional column names, and the first read
		// row is data.
		for i := range header {
			columns[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	for _, c := range columns {
		builder.Add(c)
	}

	emit := func(rec []string) {
		res.Lines++
		if len(rec) > len(columns) {
			res.Skipped = append(res.Skipped, collect.SkippedLine{
				Line:   line,
				Reason: fmt.Sprintf("row has %d fields, header has %d", len(rec), len(columns)),
			})
			p.logf("csvtab: line %d skipped: too many fields", line)
			return
		}
		row := flatten.NewRecord()
		for i, c := range columns {
			if i >= len(rec) {
				row.Set(c, nil)
				continue
			}
			v := rec[i]
			if trim {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				row.Set(c, nil)
			} else {
				row.Set(c, v)
			}
		}
		res.Records = append(res.Records, row)
	}

	if !hasHeader {
		emit(header)
	}

	for {
		select {
		case <-ctx.Done():
			return collect.Result{}, ctx.Err()
		default:
		}

		rec, err := readRec()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Lines++
				res.Skipped = append(res.Skipped, collect.SkippedLine{
					Line:   line,
					Reason: fmt.Sprintf("malformed row: %v", err),
				})
				p.logf("csvtab: line %d skipped: %v", line, err)
				continue
			}
			return collect.Result{}, fmt.Errorf("csvtab: read source: %w", err)
		}
		emit(rec)
	}

	res.Schema = builder.Freeze()
	return res, nil
}
