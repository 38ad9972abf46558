// Package ingest orchestrates one run: open the source, discover the
// schema, materialize rectangular rows, and hand them to the configured
// storage backend. The result is a Summary the caller renders to the user.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flattab/internal/collect"
	"flattab/internal/config"
	"flattab/internal/datasource/file"
	"flattab/internal/flatten"
	"flattab/internal/materialize"
	"flattab/internal/metrics"
	"flattab/internal/parser/csvtab"
	"flattab/internal/parser/htmltab"
	"flattab/internal/parser/jsonarr"
	"flattab/internal/sanitize"
	"flattab/internal/storage"
)

const defaultBatchSize = 512

// Pipeline executes one configured ingestion run.
type Pipeline struct {
	cfg  config.Ingest
	logf func(format string, a ...any)

	// newRepository is a seam so tests can run the full pipeline against a
	// fake sink. Production uses the storage registry.
	newRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
}

// New returns a Pipeline for the given config. Validate the config with
// config.ValidateIngest before running.
func New(cfg config.Ingest) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		logf:          log.Printf,
		newRepository: storage.New,
	}
}

// Run executes the pipeline and returns the run summary. Per-line problems
// are skips inside the summary; only source-level and sink-level failures
// return an error.
func (p *Pipeline) Run(ctx context.Context) (*materialize.Summary, error) {
	srcPath := p.cfg.Source.File.Path
	src := file.New(srcPath)

	table := p.cfg.Storage.DB.Table
	if strings.TrimSpace(table) == "" {
		table = src.Name()
	}
	table = sanitize.TableName(table)

	kind := p.cfg.Parser.Kind
	strategy := p.cfg.Runtime.Strategy

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &SourceError{Err: err}
	}

	br := bufio.NewReader(rc)
	if kind == "" || kind == "auto" {
		head, _ := br.Peek(512)
		kind = detectFormat(src.Name(), head)
		p.logf("ingest: detected format %q for %s", kind, src.Name())
	}

	if strategy == "twopass" && kind != "jsonl" {
		p.logf("ingest: twopass strategy only applies to jsonl, using buffered for %q", kind)
		strategy = ""
	}

	if kind == "jsonl" && strategy == "twopass" {
		// Two-pass streams the source twice instead of buffering records.
		_ = rc.Close()
		return p.runTwoPass(ctx, src, table)
	}

	res, err := p.parse(ctx, kind, br)
	cerr := rc.Close()
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	if cerr != nil {
		return nil, &SourceError{Err: cerr}
	}
	return p.finishBuffered(ctx, table, res)
}

// parse runs the buffered parser for the resolved format.
func (p *Pipeline) parse(ctx context.Context, kind string, r io.Reader) (collect.Result, error) {
	start := time.Now()
	defer func() {
		labels := metrics.Labels{"step": "parse", "status": "done"}
		metrics.IncCounter("ingest_step_total", 1, labels)
		metrics.ObserveHistogram("ingest_step_duration_seconds", time.Since(start).Seconds(), labels)
	}()

	switch kind {
	case "jsonl":
		c := collect.New(collect.Options{
			Flatten:          p.flattenConfig(),
			AllowScalarRoots: p.cfg.Parser.Options.Bool("allow_scalar_roots", false),
			MaxLineBytes:     p.cfg.Runtime.MaxLineBytes,
			Logf:             p.logf,
		})
		return c.Collect(ctx, r)

	case "json":
		return jsonarr.New(jsonarr.Options{
			Flatten: p.flattenConfig(),
			Logf:    p.logf,
		}).Parse(ctx, r)

	case "csv":
		opt := p.cfg.Parser.Options
		if strings.EqualFold(filepath.Ext(p.cfg.Source.File.Path), ".tsv") && opt.String("comma", "") == "" {
			opt = withOption(opt, "comma", "\t")
		}
		return csvtab.New(opt, p.logf).Parse(ctx, r)

	case "html":
		return htmltab.New(htmltab.Options{
			Selector: p.cfg.Parser.Options.String("table_selector", ""),
			Logf:     p.logf,
		}).Parse(ctx, r)

	default:
		return collect.Result{}, fmt.Errorf("unsupported parser kind %q", kind)
	}
}

func (p *Pipeline) flattenConfig() flatten.Config {
	return flatten.Config{
		FieldDelimiter: p.cfg.Parser.Options.String("field_delimiter", flatten.DefaultFieldDelimiter),
		IndexDelimiter: p.cfg.Parser.Options.String("index_delimiter", flatten.DefaultIndexDelimiter),
	}
}

// finishBuffered materializes the collected records and writes them out.
func (p *Pipeline) finishBuffered(ctx context.Context, table string, res collect.Result) (*materialize.Summary, error) {
	summary := &materialize.Summary{
		TableName:      table,
		Columns:        []string{},
		RowCount:       len(res.Records),
		SampleRows:     []map[string]any{},
		LinesProcessed: res.Lines,
		SkippedLines:   len(res.Skipped),
		SkippedDetail:  res.Skipped,
		KeyCollisions:  len(res.Collisions),
	}
	metrics.IncCounter("ingest_rows_total", float64(len(res.Skipped)), metrics.Labels{"kind": "skipped"})

	if res.Schema == nil || res.Schema.Len() == 0 {
		// Nothing tabular to write: zero columns cannot form DDL. The rows
		// still count, so the summary reports what was read.
		p.logf("ingest: schema is empty, skipping sink for table %q", table)
		return summary, nil
	}

	rows := materialize.Rows(res.Schema, res.Records)
	columns := sanitize.Columns(res.Schema.Columns())

	if p.cfg.Runtime.AddRowHash {
		columns, rows = appendRowHash(columns, rows)
	}

	summary.Columns = columns
	summary.SampleRows = materialize.SampleRows(columns, rows, p.cfg.Runtime.SampleRows)

	inserted, err := p.sink(ctx, table, columns, rows)
	if err != nil {
		return nil, err
	}
	summary.RowCount = int(inserted)
	metrics.IncCounter("ingest_rows_total", float64(inserted), metrics.Labels{"kind": "inserted"})
	return summary, nil
}

// sink replaces the destination table and inserts all rows in batches.
func (p *Pipeline) sink(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	start := time.Now()
	status := "ok"
	defer func() {
		labels := metrics.Labels{"step": "sink", "status": status}
		metrics.IncCounter("ingest_step_total", 1, labels)
		metrics.ObserveHistogram("ingest_step_duration_seconds", time.Since(start).Seconds(), labels)
	}()

	repo, err := p.newRepository(ctx, storage.Config{
		Kind: p.cfg.Storage.Kind,
		DSN:  p.cfg.Storage.DB.DSN,
	})
	if err != nil {
		status = "error"
		return 0, &SinkError{Err: err}
	}
	defer repo.Close()

	if err := repo.ReplaceTable(ctx, table, columns); err != nil {
		status = "error"
		return 0, &SinkError{Err: err}
	}

	batch := p.cfg.Runtime.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	var inserted int64
	for lo := 0; lo < len(rows); lo += batch {
		hi := lo + batch
		if hi > len(rows) {
			hi = len(rows)
		}
		n, err := repo.InsertRows(ctx, table, columns, textifyRows(rows[lo:hi]))
		if err != nil {
			status = "error"
			return inserted, &SinkError{Err: err}
		}
		inserted += n
		metrics.IncCounter("ingest_batches_total", 1, nil)
	}
	return inserted, nil
}

// runTwoPass reads the source twice: pass one collects the schema, pass two
// streams rows straight into the sink without buffering the whole file.
func (p *Pipeline) runTwoPass(ctx context.Context, src *file.Source, table string) (*materialize.Summary, error) {
	collector := collect.New(collect.Options{
		Flatten:          p.flattenConfig(),
		AllowScalarRoots: p.cfg.Parser.Options.Bool("allow_scalar_roots", false),
		MaxLineBytes:     p.cfg.Runtime.MaxLineBytes,
		Logf:             p.logf,
	})

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	schema, _, err := collector.CollectSchema(ctx, rc)
	_ = rc.Close()
	if err != nil {
		return nil, &SourceError{Err: err}
	}

	summary := &materialize.Summary{
		TableName:  table,
		Columns:    []string{},
		SampleRows: []map[string]any{},
	}

	hashed := p.cfg.Runtime.AddRowHash && schema.Len() > 0
	columns := sanitize.Columns(schema.Columns())
	if hashed {
		columns = append(columns, "row_hash")
	}

	writeSink := schema.Len() > 0
	var repo storage.Repository
	if writeSink {
		repo, err = p.newRepository(ctx, storage.Config{
			Kind: p.cfg.Storage.Kind,
			DSN:  p.cfg.Storage.DB.DSN,
		})
		if err != nil {
			return nil, &SinkError{Err: err}
		}
		defer repo.Close()
		if err := repo.ReplaceTable(ctx, table, columns); err != nil {
			return nil, &SinkError{Err: err}
		}
		summary.Columns = columns
	} else {
		p.logf("ingest: schema is empty, skipping sink for table %q", table)
	}

	batchSize := p.cfg.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	sampleLimit := p.cfg.Runtime.SampleRows
	if sampleLimit <= 0 {
		sampleLimit = materialize.DefaultSampleRows
	}

	rc, err = src.Open(ctx)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	defer rc.Close()

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan [][]any, 2)

	var rowCount, lines int
	var skipped []collect.SkippedLine

	g.Go(func() error {
		defer close(batches)

		batch := make([][]any, 0, batchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			out := batch
			batch = make([][]any, 0, batchSize)
			select {
			case batches <- out:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		sk, err := collector.Each(gctx, rc, func(line int, rec *flatten.Record) error {
			lines++
			row := materialize.Row(schema, rec)
			if hashed {
				row = append(row, materialize.RowHash(columns[:len(columns)-1], row))
			}
			rowCount++
			if len(summary.SampleRows) < sampleLimit {
				summary.SampleRows = append(summary.SampleRows, sampleRow(columns, row))
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				return flush()
			}
			return nil
		})
		skipped = sk
		if err != nil {
			return &SourceError{Err: err}
		}
		return flush()
	})

	g.Go(func() error {
		var inserted int64
		for batch := range batches {
			if !writeSink {
				continue
			}
			n, err := repo.InsertRows(gctx, table, columns, textifyRows(batch))
			if err != nil {
				return &SinkError{Err: err}
			}
			inserted += n
			metrics.IncCounter("ingest_batches_total", 1, nil)
		}
		metrics.IncCounter("ingest_rows_total", float64(inserted), metrics.Labels{"kind": "inserted"})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.RowCount = rowCount
	summary.LinesProcessed = lines + len(skipped)
	summary.SkippedLines = len(skipped)
	summary.SkippedDetail = skipped
	metrics.IncCounter("ingest_rows_total", float64(len(skipped)), metrics.Labels{"kind": "skipped"})
	return summary, nil
}

// appendRowHash widens the table with a deterministic content digest per row.
func appendRowHash(columns []string, rows [][]any) ([]string, [][]any) {
	for i, row := range rows {
		rows[i] = append(row, materialize.RowHash(columns, row))
	}
	return append(columns, "row_hash"), rows
}

func sampleRow(columns []string, row []any) map[string]any {
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		m[c] = row[i]
	}
	return m
}

// withOption copies an option bag with one extra setting, leaving the
// original untouched.
func withOption(opt config.Options, key string, val any) config.Options {
	out := make(config.Options, len(opt)+1)
	for k, v := range opt {
		out[k] = v
	}
	out[key] = val
	return out
}

func textifyRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = storage.TextifyRow(row)
	}
	return out
}
