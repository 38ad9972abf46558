// Package htmltab extracts the first <table> of an HTML document into
// records, so saved report pages ingest like any other tabular source.
//
// Column names come from the table's header row (thead > th, or the first
// row's cells when no thead exists); every following row becomes one record.
package htmltab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flattab/internal/collect"
	"flattab/internal/flatten"
)

// ErrNoTable reports a document without any <table> element.
var ErrNoTable = errors.New("htmltab: document contains no table")

// Options configures a Parser.
type Options struct {
	// Selector narrows which table to extract. Empty means the first table
	// in the document.
	Selector string

	// Logf is the warning diagnostic seam. Defaults to log.Printf.
	Logf func(format string, a ...any)
}

// Parser extracts one HTML table into records.
type Parser struct {
	opt Options
}

// New returns a Parser for the given options.
func New(opt Options) *Parser {
	if opt.Logf == nil {
		opt.Logf = log.Printf
	}
	return &Parser{opt: opt}
}

// Parse reads the whole document from r. Row numbers in the result are
// 1-based data-row indexes. Rows wider than the header are skipped and
// reported; narrower rows backfill nil.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (collect.Result, error) {
	if err := ctx.Err(); err != nil {
		return collect.Result{}, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return collect.Result{}, fmt.Errorf("htmltab: parse html: %w", err)
	}

	selector := p.opt.Selector
	if selector == "" {
		selector = "table"
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return collect.Result{}, ErrNoTable
	}

	columns, dataRows := splitHeader(table)
	if len(columns) == 0 {
		return collect.Result{}, fmt.Errorf("htmltab: table has no header cells")
	}

	var res collect.Result
	builder := collect.NewSchemaBuilder()
	for _, c := range columns {
		builder.Add(c)
	}

	dataRows.Each(func(i int, tr *goquery.Selection) {
		n := i + 1
		res.Lines++

		cells := tr.Find("td, th")
		if cells.Length() > len(columns) {
			res.Skipped = append(res.Skipped, collect.SkippedLine{
				Line:   n,
				Reason: fmt.Sprintf("row has %d cells, header has %d", cells.Length(), len(columns)),
			})
			p.opt.Logf("htmltab: row %d skipped: too many cells", n)
			return
		}

		rec := flatten.NewRecord()
		for ci, c := range columns {
			if ci >= cells.Length() {
				rec.Set(c, nil)
				continue
			}
			v := strings.TrimSpace(cells.Eq(ci).Text())
			if v == "" {
				rec.Set(c, nil)
			} else {
				rec.Set(c, v)
			}
		}
		res.Records = append(res.Records, rec)
	})

	res.Schema = builder.Freeze()
	return res, nil
}

// splitHeader finds the header cells and the data rows. A thead wins when
// present; otherwise the table's first row serves as the header.
func splitHeader(table *goquery.Selection) ([]string, *goquery.Selection) {
	headerCells := table.Find("thead tr").First().Find("th, td")
	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}

	if headerCells.Length() == 0 {
		first := rows.First()
		headerCells = first.Find("th, td")
		rows = rows.Slice(1, rows.Length())
	} else if table.Find("tbody").Length() == 0 {
		// thead present but rows selected via bare tr include the header row.
		rows = table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.ParentsFiltered("thead").Length() == 0
		})
	}

	columns := make([]string, 0, headerCells.Length())
	headerCells.Each(func(i int, th *goquery.Selection) {
		h := strings.TrimSpace(th.Text())
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		columns = append(columns, h)
	})
	return columns, rows
}
